package common

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRequestID generates a unique request ID
// Format: <yyyymmddhhmmss>-<8 hex chars>
func NewRequestID() string {
	return time.Now().Format("20060102150405") + "-" + randomHex(8)
}

// RandomSuffix returns n random hex characters, used to disambiguate
// generated report names.
func RandomSuffix(n int) string {
	return randomHex(n)
}

func randomHex(n int) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}
