package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-sourcer/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: expirationHours})
}

func signClaims(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// accountClaims returns claims the service would mint, valid for an hour.
func accountClaims(accountID uuid.UUID) *Claims {
	now := time.Now()
	return &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	for _, hours := range []int{1, 24, 48} {
		service := setupTestJWTService(t, hours)
		accountID := uuid.New()

		token, err := service.GenerateToken(accountID)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, accountID, claims.AccountID)
		assert.Equal(t, accountID.String(), claims.Subject)
		assert.Equal(t, tokenIssuer, claims.Issuer)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(time.Duration(hours)*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	}
}

func TestJWTService_GenerateToken_NilAccount(t *testing.T) {
	_, err := setupTestJWTService(t, 24).GenerateToken(uuid.Nil)
	assert.ErrorContains(t, err, "account ID is required")
}

func TestJWTService_DifferentAccounts(t *testing.T) {
	service := setupTestJWTService(t, 24)
	a, b := uuid.New(), uuid.New()

	tokenA, err := service.GenerateToken(a)
	require.NoError(t, err)
	tokenB, err := service.GenerateToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, tokenB)

	got, err := service.AsTokenValidator().ValidateToken(tokenB)
	require.NoError(t, err)
	assert.Equal(t, b, got.GetAccountID())

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Rejections(t *testing.T) {
	service := setupTestJWTService(t, 24)
	accountID := uuid.New()

	tests := []struct {
		name   string
		token  func() string
		errMsg string
	}{
		{
			name:   "invalid signature",
			token:  func() string { return signClaims(t, "different-secret-key-for-jwt-signing-minimum-32-bytes", accountClaims(accountID)) },
			errMsg: "signature",
		},
		{
			name: "expired",
			token: func() string {
				c := accountClaims(accountID)
				past := time.Now().Add(-2 * time.Hour)
				c.IssuedAt = jwt.NewNumericDate(past)
				c.ExpiresAt = jwt.NewNumericDate(past.Add(time.Hour))
				return signClaims(t, testSecret, c)
			},
			errMsg: "expired",
		},
		{
			name: "no expiry",
			token: func() string {
				c := accountClaims(accountID)
				c.ExpiresAt = nil
				return signClaims(t, testSecret, c)
			},
			errMsg: "failed to parse token",
		},
		{
			name: "other audience",
			token: func() string {
				c := accountClaims(accountID)
				c.Audience = jwt.ClaimStrings{"billing-api"}
				return signClaims(t, testSecret, c)
			},
			errMsg: "not issued for this service",
		},
		{
			name: "other issuer",
			token: func() string {
				c := accountClaims(accountID)
				c.Issuer = "someone-else"
				return signClaims(t, testSecret, c)
			},
			errMsg: "not issued for this service",
		},
		{
			name: "subject mismatch",
			token: func() string {
				c := accountClaims(accountID)
				c.Subject = uuid.NewString()
				return signClaims(t, testSecret, c)
			},
			errMsg: "subject does not match",
		},
		{
			name: "nil account",
			token: func() string {
				c := accountClaims(uuid.Nil)
				return signClaims(t, testSecret, c)
			},
			errMsg: "subject does not match",
		},
		{
			name: "alg none",
			token: func() string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, accountClaims(accountID)).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return token
			},
			errMsg: "signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token())
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestJWTService_ValidateToken_Malformed(t *testing.T) {
	service := setupTestJWTService(t, 24)

	for _, token := range []string{"invalid", "invalid.token", "invalid.token.format.extra", "invalid.base64.signature"} {
		t.Run(token, func(t *testing.T) {
			claims, err := service.ValidateToken(token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}

	_, err := service.ValidateToken("")
	assert.ErrorContains(t, err, "empty")
}
