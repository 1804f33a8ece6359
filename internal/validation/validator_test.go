package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-api/internal/apperror"
)

type sample struct {
	EmailID string  `json:"emailId" validate:"required,email"`
	Rating  float64 `json:"rating" validate:"gt=0,lte=5"`
}

func TestEchoValidator(t *testing.T) {
	v := EchoValidator{}

	require.NoError(t, v.Validate(&sample{EmailID: "ann@example.com", Rating: 4}))

	tests := []struct {
		name  string
		in    sample
		field string
		msg   string
	}{
		{"missing email", sample{Rating: 3}, "emailId", "emailId is required"},
		{"bad email", sample{EmailID: "nope", Rating: 3}, "emailId", "emailId must be a valid email address"},
		{"rating too high", sample{EmailID: "a@b.co", Rating: 6}, "rating", "rating must be less than or equal to 5"},
		{"rating zero", sample{EmailID: "a@b.co"}, "rating", "rating must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var ae *apperror.AppError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tt.field, ae.Field)
			assert.Equal(t, tt.msg, ae.Message)
		})
	}
}
