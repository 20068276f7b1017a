package id

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// EncryptedIDLength is the number of hex characters shown on a card.
const EncryptedIDLength = 12

// GenerateEncryptedID returns 12 upper-case hex chars taken from the
// SHA-256 digest of 6 random bytes.
func GenerateEncryptedID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return strings.ToUpper(hex.EncodeToString(sum[:])[:EncryptedIDLength]), nil
}

// NewProfileID returns a random uuid v4 string.
func NewProfileID() string {
	return uuid.NewString()
}

func GenerateUUID(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if prefix == "" {
		return id.String()
	}
	return prefix + "_" + id.String()
}

// UploadName builds a time-sortable file name keeping ext (".png", "png" or "").
func UploadName(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := strings.ToLower(GenerateUUID(""))
	if ext == "" {
		return name
	}
	return name + "." + ext
}
