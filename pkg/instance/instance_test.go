package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("VENUEOPS_INSTANCE_ID", "api-7")
	assert.Equal(t, "web.1", GetID())
}

func TestGetIDFallsBackToExplicitID(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("VENUEOPS_INSTANCE_ID", "api-7")
	assert.Equal(t, "api-7", GetID())
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("VENUEOPS_INSTANCE_ID", "")
	assert.NotEmpty(t, GetID())
}
