package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetEnvFallsBackToDefault returns the default for unset variables and
// the value otherwise.
func TestGetEnvFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "fallback", GetEnv("CONFIG_TEST_UNSET", "fallback"))

	t.Setenv("CONFIG_TEST_SET", "valor")
	assert.Equal(t, "valor", GetEnv("CONFIG_TEST_SET", "fallback"))
}

// TestGetEnvIntIgnoresMalformedValues keeps the default when the variable
// is unset or not a number.
func TestGetEnvIntIgnoresMalformedValues(t *testing.T) {
	assert.Equal(t, 42, GetEnvInt("CONFIG_TEST_INT_UNSET", 42))

	t.Setenv("CONFIG_TEST_INT", "7")
	assert.Equal(t, 7, GetEnvInt("CONFIG_TEST_INT", 42))

	t.Setenv("CONFIG_TEST_INT", "siete")
	assert.Equal(t, 42, GetEnvInt("CONFIG_TEST_INT", 42))
}

// TestGetEnvBoolParsesStrconvForms accepts the strconv.ParseBool spellings.
func TestGetEnvBoolParsesStrconvForms(t *testing.T) {
	assert.True(t, GetEnvBool("CONFIG_TEST_BOOL_UNSET", true))

	t.Setenv("CONFIG_TEST_BOOL", "false")
	assert.False(t, GetEnvBool("CONFIG_TEST_BOOL", true))

	t.Setenv("CONFIG_TEST_BOOL", "1")
	assert.True(t, GetEnvBool("CONFIG_TEST_BOOL", false))

	t.Setenv("CONFIG_TEST_BOOL", "tal vez")
	assert.True(t, GetEnvBool("CONFIG_TEST_BOOL", true))
}
