package utils

import "golang.org/x/crypto/bcrypt"

// Password modes. PasswordPlain stores and compares the submitted text as
// is, which is how existing user rows were written. PasswordBcrypt hashes
// new passwords and verifies against the hash.
const (
    PasswordPlain  = "plain"
    PasswordBcrypt = "bcrypt"
)

// Passwords encodes and checks local account passwords for one mode.
type Passwords struct {
    Mode string
    Cost int
}

// Encode returns the value to persist in user.password.
func (p Passwords) Encode(plain string) (string, error) {
    if p.Mode != PasswordBcrypt {
        return plain, nil
    }
    return HashPassword(plain, p.Cost)
}

// Matches compares a stored value with the submitted password.
func (p Passwords) Matches(stored, plain string) bool {
    if p.Mode != PasswordBcrypt {
        return stored == plain
    }
    return VerifyPassword(stored, plain)
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
    if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
        cost = bcrypt.DefaultCost
    }
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
