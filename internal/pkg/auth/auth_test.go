// internal/pkg/auth/auth_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/marketplace-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "marketplace-test"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-of-sufficient-length!",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

func TestPasswordValidation(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	cases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Str0ngPass", true},
		{"too short", "Ab1", false},
		{"no uppercase", "weakpass1", false},
		{"no lowercase", "WEAKPASS1", false},
		{"no digit", "WeakPassword", false},
		{"repeating run", "Abbb1cdef", false},
		{"common word", "Password123x", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := pm.ValidatePassword(tc.password)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	pm := NewPasswordManager(testConfig())

	hash, err := pm.HashPassword("Str0ngPass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass", hash)

	assert.NoError(t, pm.VerifyPassword("Str0ngPass", hash))
	assert.Error(t, pm.VerifyPassword("WrongPass1", hash))

	// Weak passwords are refused before hashing
	_, err = pm.HashPassword("weak")
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	jm := NewJWTManager(testConfig())

	token, err := jm.GenerateAccessToken(42, "user@test.com", RoleSupplier)
	require.NoError(t, err)

	claims, err := jm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@test.com", claims.Email)
	assert.Equal(t, string(RoleSupplier), claims.Role)

	identity := claims.Identity()
	assert.Equal(t, uint(42), identity.UserID)
	assert.True(t, identity.IsSupplier())
	assert.False(t, identity.IsAdmin())
}

func TestTokenTypeEnforced(t *testing.T) {
	jm := NewJWTManager(testConfig())

	refresh, err := jm.GenerateRefreshToken(42, "user@test.com")
	require.NoError(t, err)

	// A refresh token is not accepted where an access token is required
	_, err = jm.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = jm.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestTokenTampering(t *testing.T) {
	jm := NewJWTManager(testConfig())

	token, err := jm.GenerateAccessToken(42, "user@test.com", RoleCustomer)
	require.NoError(t, err)

	_, err = jm.ValidateToken(token + "x")
	assert.Error(t, err)

	otherCfg := testConfig()
	otherCfg.JWT.Secret = "another-secret-key-of-sufficient-len"
	_, err = NewJWTManager(otherCfg).ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTokenExpiry = -time.Minute
	jm := NewJWTManager(cfg)

	token, err := jm.GenerateAccessToken(42, "user@test.com", RoleCustomer)
	require.NoError(t, err)

	_, err = jm.ValidateToken(token)
	assert.Error(t, err)
}

func TestIdentityRoles(t *testing.T) {
	assert.False(t, Identity{Role: RoleCustomer}.IsSupplier())
	assert.True(t, Identity{Role: RoleSupplier}.IsSupplier())
	assert.True(t, Identity{Role: RoleAdmin}.IsSupplier())
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Identity{Role: RoleSupplier}.IsAdmin())
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
}
