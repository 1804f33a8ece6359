// Package auth implements the OAuth authorization code flow for the
// supported identity providers. A provider turns a callback code into an
// Identity; resolving that identity to a local user is the caller's job.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// ErrNoEmail is returned when the provider does not disclose an email and
// no fallback can be derived.
var ErrNoEmail = errors.New("auth: provider returned no email")

// Identity is what a provider tells us about the person who signed in.
type Identity struct {
	Email       string
	DisplayName string
}

// Provider is one OAuth identity provider.
type Provider interface {
	// Name is the route segment and metrics label, e.g. "github".
	Name() string
	// AuthURL returns the provider consent URL carrying state.
	AuthURL(state string) string
	// Exchange trades the callback code for the signed-in identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// getJSON calls url with the token-bearing client and decodes the body.
func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("auth: calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding %s: %w", url, err)
	}
	return nil
}

// ---- Google ----

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type googleUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleProvider signs users in with a Google account.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange fails with ErrNoEmail when the profile carries no email; Google
// accounts always have one unless the email scope was refused.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: exchanging google code: %w", err)
	}
	var u googleUser
	if err := getJSON(p.config.Client(ctx, tok), p.userInfoURL, &u); err != nil {
		return Identity{}, err
	}
	if u.Email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Email: u.Email, DisplayName: u.Name}, nil
}

// ---- GitHub ----

const githubAPI = "https://api.github.com"

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"` // empty if hidden in GitHub settings
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider signs users in with a GitHub account.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoints.GitHub,
		},
		apiBase: githubAPI,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange resolves the email in order: the public profile email, the
// primary address from /user/emails, and finally the GitHub noreply
// address built from the login, which is unique per account.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: exchanging github code: %w", err)
	}
	client := p.config.Client(ctx, tok)

	var u githubUser
	if err := getJSON(client, p.apiBase+"/user", &u); err != nil {
		return Identity{}, err
	}
	if u.Login == "" {
		return Identity{}, errors.New("auth: github returned a user without login")
	}

	email := u.Email
	if email == "" {
		var emails []githubEmail
		// A failure here only loses the optional lookup.
		if err := getJSON(client, p.apiBase+"/user/emails", &emails); err == nil {
			email = pickGitHubEmail(emails)
		}
	}
	if email == "" {
		email = NoReplyEmail(u.Login)
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return Identity{Email: email, DisplayName: name}, nil
}

// NoReplyEmail is the synthesized address for a GitHub login whose email
// is private.
func NoReplyEmail(login string) string {
	return login + "@users.noreply.github.com"
}

func pickGitHubEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

// DisplayNameFor picks the user name stored for a new OAuth account: the
// provider display name, else the email local part, else "User".
func DisplayNameFor(id Identity) string {
	if n := strings.TrimSpace(id.DisplayName); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}
