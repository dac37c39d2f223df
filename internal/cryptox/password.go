// Package cryptox implements one-way password hashing for stored
// credentials using Argon2id. Hashes are emitted in the PHC string format,
// so the algorithm parameters and salt travel inside the hash itself and no
// external salt storage is needed:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 salt>$<base64 key>
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/poslynx/tillkeeper/internal/common"
)

// Argon2Hasher hashes and verifies passwords with Argon2id. The zero value
// is not usable; construct it with NewArgon2Hasher.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

// NewArgon2Hasher returns a hasher with the project defaults
// (64 MiB memory, 1 pass, 4 lanes, 32-byte key, 16-byte salt).
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		keyLen:  32,
		saltLen: 16,
	}
}

// Hash derives an Argon2id key from the password under a fresh random salt
// and returns the PHC-encoded hash string. Two calls with the same password
// yield different strings.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify recomputes the hash of password using the parameters and salt
// embedded in encoded and compares in constant time. A non-matching password
// returns (false, nil); a structurally malformed encoded string returns
// common.ErrHashMalformed.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	salt, key, time, memory, threads, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func decodeHash(encoded string) (salt, key []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: wrong section count", common.ErrHashMalformed)
	}
	if parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: unsupported algorithm %q", common.ErrHashMalformed, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad version section", common.ErrHashMalformed)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: unsupported version %d", common.ErrHashMalformed, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad parameter section", common.ErrHashMalformed)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad salt encoding", common.ErrHashMalformed)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad key encoding", common.ErrHashMalformed)
	}
	if len(salt) == 0 || len(key) == 0 {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: empty salt or key", common.ErrHashMalformed)
	}
	return salt, key, time, memory, threads, nil
}
