// Package ids generates the ULID identifiers used for leads, lead files and
// dashboard users.
package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a new ULID string. IDs created in the same millisecond sort in
// creation order.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IsValid reports whether value is a canonical ULID.
func IsValid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// Parse parses a ULID, accepting lower case input.
func Parse(value string) (ulid.ULID, error) {
	return ulid.ParseStrict(strings.ToUpper(strings.TrimSpace(value)))
}
