package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taskhub/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "taskhub", time.Hour)

	token, err := svc.Generate("alice", "10.0.0.1", "firefox")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "10.0.0.1", claims.ClientIP)
	assert.Equal(t, "firefox", claims.UserAgent)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewService("key-one", "taskhub", time.Hour).Generate("alice", "", "")
	require.NoError(t, err)

	_, err = NewService("key-two", "taskhub", time.Hour).Validate(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("test-signing-key", "taskhub", -time.Minute)
	token, err := svc.Generate("alice", "", "")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "taskhub", time.Hour)
	_, err := svc.Validate("not-a-token")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
