// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// argonParams are the argon2id cost settings encoded into every hash.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentParams = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLength = 16

var errMalformedHash = errors.New("malformed argon2id hash")

// HashPassword derives an encoded argon2id hash for a password.
func HashPassword(password string) (string, error) {
	return hashSecret(password, currentParams)
}

// HashAnswer stores security answers the same way as passwords. Answers are
// normalized first so "  Fluffy " and "fluffy" hash to a match.
func HashAnswer(answer string) (string, error) {
	normalized := NormalizeAnswer(answer)
	if normalized == "" {
		return "", NewInputError("security_answer", "security answer is required")
	}
	return hashSecret(normalized, currentParams)
}

// NormalizeAnswer trims and case folds a security answer.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// CompareAnswer reports whether supplied matches a stored answer hash.
func CompareAnswer(supplied, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	ok, err := VerifyPassword(NormalizeAnswer(supplied), storedHash)
	return err == nil && ok
}

func hashSecret(secret string, p argonParams) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, want, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// VerifyPasswordWithRehash also returns a fresh hash when the stored one
// was produced with outdated parameters. A failed rehash is not an error.
func VerifyPasswordWithRehash(
	password, encodedHash string,
) (bool, string, error) {
	valid, err := VerifyPassword(password, encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	p, _, _, err := decodeHash(encodedHash)
	if err == nil && p == currentParams {
		return true, "", nil
	}

	newHash, hashErr := HashPassword(password)
	if hashErr != nil {
		//nolint:nilerr // password verified successfully; rehash failure is non-critical
		return true, "", nil
	}
	return true, newHash, nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("dummy_password_for_timing_attack_prevention")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	return hash
})

// VerifyPasswordTimingSafe burns the same argon2 cost for unknown accounts,
// so sign-in timing does not reveal which emails exist.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result is discarded either way
		_, _, _ = VerifyPasswordWithRehash(password, dummyHash())
		return false, "", nil
	}

	return VerifyPasswordWithRehash(password, *encodedHash)
}

func decodeHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: version: %w", errMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("incompatible argon2 version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %w", errMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %w", errMalformedHash, err)
	}

	//nolint:gosec // G115: hash length is always small (32 bytes for Argon2id)
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}

// GenerateSecureToken returns length random bytes, URL safe and unpadded.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func GenerateRefreshToken() (string, error) {
	return GenerateSecureToken(32)
}

// GenerateResetTicket issues the single-use ticket handed out after a
// correct security answer.
func GenerateResetTicket() (string, error) {
	return GenerateSecureToken(24)
}

// HashToken is the stored form of refresh tokens and reset tickets.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
