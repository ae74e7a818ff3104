package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidSecretHash         = errors.New("invalid secret hash format")
	ErrIncompatibleSecretVersion = errors.New("incompatible secret hash version")
)

// Argon2idParams tunes the key derivation used for login code secrets.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams are used when AuthSettings leaves the parameters empty.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func (p Argon2idParams) orDefault() Argon2idParams {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 || p.SaltLength == 0 || p.KeyLength == 0 {
		return DefaultArgon2idParams
	}
	return p
}

const secretHashPrefix = "$argon2id$"

// secretHash is the decoded form of $argon2id$v=19$m=..,t=..,p=..$salt$key.
type secretHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h secretHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", secretHashPrefix, argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		enc.EncodeToString(h.salt), enc.EncodeToString(h.key))
}

func parseSecretHash(encoded string) (secretHash, error) {
	rest, ok := strings.CutPrefix(encoded, secretHashPrefix)
	if !ok {
		return secretHash{}, ErrInvalidSecretHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return secretHash{}, ErrInvalidSecretHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return secretHash{}, ErrInvalidSecretHash
	}
	if version != argon2.Version {
		return secretHash{}, ErrIncompatibleSecretVersion
	}

	var h secretHash
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return secretHash{}, ErrInvalidSecretHash
	}
	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil {
		return secretHash{}, ErrInvalidSecretHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil || len(h.key) == 0 {
		return secretHash{}, ErrInvalidSecretHash
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))
	return h, nil
}

func (h secretHash) derive(secret string) []byte {
	return argon2.IDKey([]byte(secret), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
}

// CreateSecretHash derives a salted argon2id digest of a login code secret.
func CreateSecretHash(secret string, params Argon2idParams) (string, error) {
	h := secretHash{params: params.orDefault()}
	h.salt = make([]byte, h.params.SaltLength)
	if _, err := rand.Read(h.salt); err != nil {
		return "", err
	}
	h.key = h.derive(secret)
	return h.String(), nil
}

// VerifySecret compares a candidate secret with a digest produced by
// CreateSecretHash in constant time. A mismatch is ErrInvalidCredentials.
func VerifySecret(encoded, secret string) error {
	h, err := parseSecretHash(encoded)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.key, h.derive(secret)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
