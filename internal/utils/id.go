package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a random hex identifier, used for connection ids.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// crypto/rand should never fail; fall back to a timestamp if it does.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
