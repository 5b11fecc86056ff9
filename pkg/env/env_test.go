package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPrefersPrefixedKey(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("VENUEOPS_LOG_FORMAT", "console")
	assert.Equal(t, "console", Get("LOG_FORMAT", "x"))

	t.Setenv("VENUEOPS_LOG_FORMAT", " ")
	assert.Equal(t, "json", Get("LOG_FORMAT", "x"))

	assert.Equal(t, "fallback", Get("VENUEOPS_TEST_UNSET_KEY", "fallback"))
}

func TestBool(t *testing.T) {
	t.Setenv("LOG_COLOR", "true")
	assert.True(t, Bool("LOG_COLOR", false))

	t.Setenv("LOG_COLOR", "nope")
	assert.False(t, Bool("LOG_COLOR", false))
	assert.True(t, Bool("LOG_COLOR_UNSET", true))
}
