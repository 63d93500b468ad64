// Package password hashes account passwords with Argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	placeholderLen = 24
)

// Hash returns an encoded Argon2id hash with a random salt.
func Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Placeholder generates and hashes a random password for an account created
// at checkout. The plaintext is discarded; the patient sets a real password
// through the account recovery flow.
func Placeholder() (string, error) {
	raw := make([]byte, placeholderLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return Hash(base64.RawURLEncoding.EncodeToString(raw))
}

// Verify checks password against an encoded hash produced by Hash.
func Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return false
	}

	memory, timeCost, threads, ok := parseParams(parts[3])
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}

func parseParams(raw string) (memory, timeCost uint32, threads uint8, ok bool) {
	fields := strings.Split(raw, ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	values := make([]uint64, 3)
	for i, prefix := range []string{"m=", "t=", "p="} {
		v, found := strings.CutPrefix(fields[i], prefix)
		if !found {
			return 0, 0, 0, false
		}
		bits := 32
		if prefix == "p=" {
			bits = 8
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return 0, 0, 0, false
		}
		values[i] = n
	}
	return uint32(values[0]), uint32(values[1]), uint8(values[2]), true
}
