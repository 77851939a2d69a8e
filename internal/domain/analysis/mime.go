package analysis

import (
	"github.com/h2non/filetype"
)

// DefaultMIME is assumed when the image type cannot be sniffed.
const DefaultMIME = "image/jpeg"

// DetectMIME sniffs the image type from its magic bytes.
func DetectMIME(image []byte) string {
	kind, err := filetype.Match(image)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(image) {
		return DefaultMIME
	}
	return kind.MIME.Value
}
