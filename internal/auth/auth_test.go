package auth

import (
	"testing"
	"time"

	"messenger-backend/internal/config"
	"messenger-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testConfig(secret, expiry string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Expiry = expiry
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig("test-secret", "1h"))
	user := &models.User{ID: uuid.New(), Username: "alice"}

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.NotEmpty(t, claims.ID, "token must carry a jti for revocation")
	require.NotNil(t, claims.ExpiresAt)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}

	token, err := NewJWTManager(testConfig("secret-one", "1h")).GenerateToken(user)
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("secret-two", "1h")).ValidateToken(token)
	require.Error(t, err)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	claims := Claims{UserID: uuid.New().String(), Username: "mallory"}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("test-secret", "1h")).ValidateToken(token)
	require.Error(t, err)
}

func TestExpiryFallback(t *testing.T) {
	manager := NewJWTManager(testConfig("test-secret", "not-a-duration"))
	require.Equal(t, 24*time.Hour, manager.expiry)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, CheckPassword("correct horse battery staple", hash))
	require.False(t, CheckPassword("wrong password", hash))
}
