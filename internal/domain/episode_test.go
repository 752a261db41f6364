package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityPrefersGUID(t *testing.T) {
	a := Episode{GUID: "guid-1", Title: "Episode 1", AudioURL: "https://a.example/1.mp3"}
	b := Episode{GUID: "guid-1", Title: "Renamed Episode", AudioURL: "https://b.example/other.mp3"}

	assert.Equal(t, a.Identity(), b.Identity(), "identity follows the guid when present")
}

func TestIdentityFallsBackToTitleAndURL(t *testing.T) {
	a := Episode{Title: "Episode 1", AudioURL: "https://a.example/1.mp3"}
	b := Episode{Title: "Episode 1", AudioURL: "https://a.example/1.mp3"}
	c := Episode{Title: "Episode 1", AudioURL: "https://a.example/2.mp3"}

	assert.Equal(t, a.Identity(), b.Identity(), "stable across reloads")
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestIdentityShape(t *testing.T) {
	got := Episode{GUID: "g"}.Identity()
	assert.Len(t, got, len("ep_")+24)
	assert.Contains(t, got, "ep_")
}
