// Package password hashes account passwords with argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/dtroode/vkn-server/internal/model"
)

const (
	saltLen = 16
	keyLen  = 32
)

// ErrMalformedHash is returned by Compare when the stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

var _ model.PasswordHasher = (*Argon2)(nil)

// Argon2 hashes passwords into PHC strings: $argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<key>.
type Argon2 struct {
	time   uint32
	memKiB uint32
	par    uint8
}

// NewArgon2 creates a hasher with the given cost parameters.
func NewArgon2(time, memKiB uint32, par uint8) *Argon2 {
	return &Argon2{time: time, memKiB: memKiB, par: par}
}

// Hash derives a new salted hash of password.
func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.time, a.memKiB, a.par, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memKiB, a.time, a.par,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare reports whether password matches hash. Parameters are read from the hash itself.
func (a *Argon2) Compare(hash, password string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedHash
	}

	var (
		memKiB, time uint32
		par          uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memKiB, &time, &par); err != nil {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	got := argon2.IDKey([]byte(password), salt, time, memKiB, par, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
