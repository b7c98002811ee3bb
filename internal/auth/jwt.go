// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
)

const tokenTypeAccess = "access"

// JWTManager signs ES256 access tokens and publishes the verifying key as a
// JWKS document.
type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	if cfg.GenerateKeys {
		if err := ensureKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
			return nil, err
		}
	}

	privateKey, err := readKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	kid, err := thumbprint(publicKey)
	if err != nil {
		return nil, err
	}

	if cfg.PublicKeyPath != "" {
		if err := checkPublicKey(cfg.PublicKeyPath, kid); err != nil {
			return nil, err
		}
	}

	for _, key := range []jwk.Key{privateKey, publicKey} {
		if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
			return nil, fmt.Errorf("set algorithm: %w", err)
		}
		if err := key.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
	}

	if err := publicKey.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	publicJWKS := jwk.NewSet()
	if err := publicJWKS.AddKey(publicKey); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
	}, nil
}

func readKey(path string) (jwk.Key, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	key, err := jwk.ParseKey(pem, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return key, nil
}

// thumbprint derives the key id from the RFC 7638 thumbprint so every
// replica holding the same key pair publishes the same kid.
func thumbprint(key jwk.Key) (string, error) {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

func checkPublicKey(path, kid string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	stored, err := readKey(path)
	if err != nil {
		return fmt.Errorf("public key: %w", err)
	}

	storedKID, err := thumbprint(stored)
	if err != nil {
		return err
	}

	if storedKID != kid {
		return fmt.Errorf("public key %s does not match the private key", path)
	}

	return nil
}

func ensureKeyPair(privateKeyPath, publicKeyPath string) error {
	if _, err := os.Stat(privateKeyPath); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat private key: %w", err)
	}

	for _, path := range []string{privateKeyPath, publicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}

	return GenerateKeyPair(privateKeyPath, publicKeyPath)
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

// KeyID is the kid stamped on every signed token.
func (m *JWTManager) KeyID() string {
	kid, _ := m.publicKey.KeyID()
	return kid
}

// AccessTokenClaims carries the role only as a hint; the authenticator
// replaces it with the stored role on every request.
type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *JWTManager) CreateAccessToken(
	claims AccessTokenClaims,
	issuedAt time.Time,
) (string, error) {
	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(issuedAt).
		Expiration(issuedAt.Add(m.config.AccessTokenExpire)).
		NotBefore(issuedAt).
		Claim("role", claims.Role).
		Claim("token_version", claims.TokenVersion).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	claims, err := accessClaims(token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w: %w", err, core.ErrTokenInvalid)
	}

	return claims, nil
}

func accessClaims(token jwt.Token) (*middleware.AccessTokenClaims, error) {
	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != tokenTypeAccess {
		return nil, errors.New("not an access token")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, errors.New("missing subject")
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, errors.New("missing jti")
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, errors.New("missing role claim")
	}

	var version float64
	if err := token.Get("token_version", &version); err != nil {
		return nil, errors.New("missing token_version claim")
	}

	expiresAt, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       subject,
		Role:         role,
		TokenVersion: int(version),
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, `"exp"`) &&
		(strings.Contains(msg, "not satisfied") || strings.Contains(msg, "expired"))
}

func (m *JWTManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
		}
	}
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

func (m *JWTManager) CreateRefreshToken(
	familyID string,
	issuedAt time.Time,
) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: issuedAt.Add(m.config.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
