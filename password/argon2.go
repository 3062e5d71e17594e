package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Config holds argon2id cost parameters.
//
// Config instances are intended to be set once at initialization and then
// treated as immutable.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns interactive-login cost parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Verifier hashes secrets with argon2id and checks candidates against
// stored hashes. Verification is binary and constant-time over the derived
// key; the plaintext and the hash are never logged or echoed back.
type Verifier struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// New validates cfg and returns a [Verifier].
func New(cfg Config) (*Verifier, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Verifier{config: cfg}, nil
}

// Hash derives a one-way, salted hash of plain and encodes it in PHC
// string format. Used once at credential creation.
func (v *Verifier) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty secret")
	}

	salt := make([]byte, v.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(plain),
		salt,
		v.config.Time,
		v.config.Memory,
		v.config.Parallelism,
		v.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		v.config.Memory,
		v.config.Time,
		v.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether plain matches encodedHash. The comparison runs
// over the full derived key regardless of where a mismatch occurs.
func (v *Verifier) Verify(plain, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plain),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// parsePHC decodes "$argon2id$v=19$m=..,t=..,p=..$<salt>$<hash>". Cost
// parameters come from the encoded string, not the verifier config, so
// hashes created under older settings keep verifying. The same cost and
// salt floors that gate New gate what a stored hash may claim.
func parsePHC(encodedHash string) (*parsedPHC, error) {
	fields := strings.Split(encodedHash, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, errors.New("malformed hash encoding")
	}
	if fields[1] != algorithmID {
		return nil, fmt.Errorf("unsupported hash algorithm %q", fields[1])
	}

	rawVersion, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return nil, errors.New("malformed hash version")
	}
	if version, err := strconv.Atoi(rawVersion); err != nil || version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var parsed parsedPHC
	seen := make(map[string]bool, 3)
	for _, setting := range strings.Split(fields[3], ",") {
		name, value, ok := strings.Cut(setting, "=")
		if !ok || seen[name] {
			return nil, errors.New("malformed cost parameters")
		}
		seen[name] = true

		switch name {
		case "m":
			cost, err := strconv.ParseUint(value, 10, 32)
			if err != nil || cost < uint64(minMemoryKB) {
				return nil, errors.New("memory cost out of range")
			}
			parsed.memory = uint32(cost)
		case "t":
			cost, err := strconv.ParseUint(value, 10, 32)
			if err != nil || cost < uint64(minTimeCost) {
				return nil, errors.New("time cost out of range")
			}
			parsed.time = uint32(cost)
		case "p":
			cost, err := strconv.ParseUint(value, 10, 8)
			if err != nil || cost < uint64(minParallelism) {
				return nil, errors.New("parallelism out of range")
			}
			parsed.parallelism = uint8(cost)
		default:
			return nil, fmt.Errorf("unknown cost parameter %q", name)
		}
	}
	if len(seen) != 3 {
		return nil, errors.New("incomplete cost parameters")
	}

	salt, err := base64.StdEncoding.DecodeString(fields[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return nil, errors.New("malformed salt")
	}
	hash, err := base64.StdEncoding.DecodeString(fields[5])
	if err != nil || len(hash) == 0 {
		return nil, errors.New("malformed hash")
	}

	parsed.salt = salt
	parsed.hash = hash
	parsed.keyLength = uint32(len(hash))
	return &parsed, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return fmt.Errorf("memory cost %d KB below minimum %d", cfg.Memory, minMemoryKB)
	case cfg.Time < minTimeCost:
		return fmt.Errorf("time cost %d below minimum %d", cfg.Time, minTimeCost)
	case cfg.Parallelism < minParallelism:
		return fmt.Errorf("parallelism %d below minimum %d", cfg.Parallelism, minParallelism)
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("salt length %d below minimum %d", cfg.SaltLength, minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return fmt.Errorf("key length %d below minimum %d", cfg.KeyLength, minKeyLength)
	}
	return nil
}
