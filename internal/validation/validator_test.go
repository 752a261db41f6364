package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/lingopod/engine/internal/errors"
)

type loadRequest struct {
	Title    string `json:"title" validate:"required"`
	AudioURL string `json:"audioUrl" validate:"required,url"`
	Language string `json:"language" validate:"omitempty,max=16"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	err := v.Validate(loadRequest{
		Title:    "Episode One",
		AudioURL: "https://cdn.example.com/ep1.mp3",
		Language: "en",
	})
	assert.NoError(t, err)
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(loadRequest{Title: "Episode One", AudioURL: "not a url"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "audioUrl")
	assert.Equal(t, "must be a valid URL", details["audioUrl"])
}

func TestValidateRequired(t *testing.T) {
	v := New()
	err := v.Validate(loadRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "is required", details["title"])
}
