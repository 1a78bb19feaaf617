package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor for new hashes.
	DefaultIterations = 600000
	// legacyIterations applies to stored hashes whose method omits a count.
	legacyIterations = 260000

	saltLength = 8
	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var errMalformedHash = errors.New("malformed password hash")

// Hasher produces salted one-way password hashes in the
// "pbkdf2:sha256:<iterations>$<salt>$<hex>" format and checks them.
// Bcrypt hashes ("$2a$...") are accepted by Check as well.
type Hasher struct {
	Iterations int
}

func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{Iterations: iterations}
}

func (h *Hasher) Hash(password string) (string, error) {
	salt, err := genSalt(saltLength)
	if err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(dk)), nil
}

// Check reports whether password matches the stored hash. The digest
// comparison is constant time.
func (h *Hasher) Check(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	want, err := derive(stored, password)
	if err != nil {
		return false
	}
	parts := strings.SplitN(stored, "$", 3)
	return subtle.ConstantTimeCompare([]byte(want), []byte(parts[2])) == 1
}

// derive recomputes the hex digest for password using the method and salt
// recorded in stored.
func derive(stored, password string) (string, error) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return "", errMalformedHash
	}
	method, salt := parts[0], parts[1]

	fields := strings.Split(method, ":")
	if len(fields) < 2 || fields[0] != "pbkdf2" {
		return "", fmt.Errorf("%w: method %q", errMalformedHash, method)
	}
	var newHash func() hash.Hash
	var size int
	switch fields[1] {
	case "sha256":
		newHash, size = sha256.New, sha256.Size
	case "sha512":
		newHash, size = sha512.New, sha512.Size
	default:
		return "", fmt.Errorf("%w: digest %q", errMalformedHash, fields[1])
	}
	iterations := legacyIterations
	if len(fields) > 2 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%w: iterations %q", errMalformedHash, fields[2])
		}
		iterations = n
	}
	dk := pbkdf2.Key([]byte(password), []byte(salt), iterations, size, newHash)
	return hex.EncodeToString(dk), nil
}

func genSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = saltChars[idx.Int64()]
	}
	return string(b), nil
}
