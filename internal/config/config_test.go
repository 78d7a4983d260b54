package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PAYDESK_TEST_SET", "value")
	t.Setenv("PAYDESK_TEST_EMPTY", "")

	assert.Equal(t, "value", GetEnv("PAYDESK_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PAYDESK_TEST_MISSING", "fallback"))
	// Empty counts as unset.
	assert.Equal(t, "fallback", GetEnv("PAYDESK_TEST_EMPTY", "fallback"))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("PAYDESK_TEST_INT", "42")
	t.Setenv("PAYDESK_TEST_NOT_INT", "many")

	assert.Equal(t, 42, GetIntEnv("PAYDESK_TEST_INT", 7))
	assert.Equal(t, 7, GetIntEnv("PAYDESK_TEST_NOT_INT", 7))
	assert.Equal(t, 7, GetIntEnv("PAYDESK_TEST_MISSING", 7))
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("PAYDESK_TEST_DURATION", "90s")
	t.Setenv("PAYDESK_TEST_NOT_DURATION", "soon")

	assert.Equal(t, 90*time.Second, GetDurationEnv("PAYDESK_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetDurationEnv("PAYDESK_TEST_NOT_DURATION", time.Minute))
	assert.Equal(t, time.Minute, GetDurationEnv("PAYDESK_TEST_MISSING", time.Minute))
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("ENV", "development")
	assert.False(t, IsProduction())

	t.Setenv("ENV", "")
	assert.False(t, IsProduction())
}
