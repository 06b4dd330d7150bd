// internal/models/user_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPasswordRoundTrip(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)

	// CheckPassword reports the mismatch as an error, not a bool.
	assert.NoError(t, user.CheckPassword("correct horse battery staple"))
	assert.Error(t, user.CheckPassword("wrong password"))
}
