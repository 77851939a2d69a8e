package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Fingerprint streams r through SHA-256 and returns the lowercase hex digest.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHash, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintBytes returns the fingerprint of an in-memory image.
func FingerprintBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
