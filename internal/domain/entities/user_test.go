package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("friend@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("friend@example"))
	assert.Error(t, ValidateEmail("friend example@x.com"))
	assert.Equal(t, "friend@example.com", NormalizeEmail("  Friend@Example.COM "))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername(""))
	assert.NoError(t, ValidateUsername("card_fan-99"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("no spaces"))
	assert.Error(t, ValidateUsername("abcdefghijklmnopqrstuvwxyz12345"))
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}
