package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/validation"
)

type pool struct {
	Workers int `json:"workers" validate:"gte=1,lte=64"`
}

type settings struct {
	Backend string `json:"backend" validate:"oneof=google ollama"`
	Source  string `json:"source" validate:"required"`
	Pool    pool   `json:"pool"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(settings{Backend: "google", Source: "in", Pool: pool{Workers: 5}})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		in        settings
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing required field",
			in:        settings{Backend: "google", Pool: pool{Workers: 1}},
			wantField: "source",
			wantMsg:   "is required",
		},
		{
			name:      "unknown backend",
			in:        settings{Backend: "deepl", Source: "in", Pool: pool{Workers: 1}},
			wantField: "backend",
			wantMsg:   "must be one of: google ollama",
		},
		{
			name:      "nested bound",
			in:        settings{Backend: "google", Source: "in", Pool: pool{Workers: 0}},
			wantField: "pool.workers",
			wantMsg:   "must be greater than or equal to 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var(3, "gte=1"))
	assert.ErrorIs(t, v.Var(0, "gte=1"), domainerrors.ErrValidation)
}
