package auth

import (
	"testing"

	"github.com/hivecraft/portal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	return &config.Config{AuthConfig: config.AuthConfig{JWTSecret: secret}}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	cfg := testConfig("test-secret")
	token, err := IssueSessionToken(cfg, "u1", "admin", "Alice")
	require.NoError(t, err)

	claims, err := VerifySessionToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "Alice", claims.Name)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := IssueSessionToken(testConfig("secret-a"), "u1", "client", "")
	require.NoError(t, err)

	_, err = VerifySessionToken(testConfig("secret-b"), token)
	assert.Error(t, err)
}

func TestSessionTokenTampered(t *testing.T) {
	cfg := testConfig("test-secret")
	token, err := IssueSessionToken(cfg, "u1", "client", "")
	require.NoError(t, err)

	_, err = VerifySessionToken(cfg, token+"x")
	assert.Error(t, err)
	_, err = VerifySessionToken(cfg, "not-a-token")
	assert.Error(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := IssueSessionToken(testConfig(""), "u1", "client", "")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
	assert.False(t, CheckPassword("", "anything"))
}
