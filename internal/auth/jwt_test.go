// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newJWTManager(t)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "acct-1",
		Role:         authz.RoleAdmin,
		TokenVersion: 3,
	}, time.Now())
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.UserID)
	assert.Equal(t, authz.RoleAdmin, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.JTI)
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	m := newJWTManager(t)
	other := newJWTManager(t)

	expired, err := m.CreateAccessToken(AccessTokenClaims{UserID: "acct-1"}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	foreign, err := other.CreateAccessToken(AccessTokenClaims{UserID: "acct-1"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, core.ErrTokenExpired},
		{"signed by another key", foreign, core.ErrTokenInvalid},
		{"garbage", "not-a-token", core.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKeyIDIsStableForTheSameKeys(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "keys", "public.pem"),
		AccessTokenExpire: time.Minute,
		GenerateKeys:      true,
	}

	first, err := NewJWTManager(cfg)
	require.NoError(t, err)

	second, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, first.KeyID())
	assert.Equal(t, first.KeyID(), second.KeyID())
}

func TestMismatchedPublicKeyIsRejected(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))
	require.NoError(t, GenerateKeyPair(filepath.Join(dir, "other.pem"), pub))

	_, err := NewJWTManager(config.JWTConfig{PrivateKeyPath: priv, PublicKeyPath: pub})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestJWKSHandlerPublishesKeyID(t *testing.T) {
	m := newJWTManager(t)

	rec := httptest.NewRecorder()
	m.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Keys []struct {
			KID string `json:"kid"`
			Alg string `json:"alg"`
			Use string `json:"use"`
			D   string `json:"d"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Keys, 1)
	assert.Equal(t, m.KeyID(), doc.Keys[0].KID)
	assert.Equal(t, "ES256", doc.Keys[0].Alg)
	assert.Equal(t, "sig", doc.Keys[0].Use)
	assert.Empty(t, doc.Keys[0].D)
}
