package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so
// ORDER BY id matches insertion order for rows created by this service.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
