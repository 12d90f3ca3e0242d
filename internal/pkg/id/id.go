package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time, which keeps entry ids stable for the admin listing and safe for use
// as DynamoDB index keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
