package dedupe

import "errors"

// ErrHash is returned when the image bytes cannot be read for hashing.
var ErrHash = errors.New("fingerprint failed")
