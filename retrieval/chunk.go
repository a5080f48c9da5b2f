package retrieval

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid"
)

// Category is the closed set of source tags a chunk may carry.
type Category string

const (
	CategoryEmail     Category = "email"
	CategoryNotes     Category = "notes"
	CategoryDocuments Category = "documents"
	CategoryCalendar  Category = "calendar"
	CategoryMessages  Category = "messages"
	CategoryWeb       Category = "web"
	CategoryOther     Category = "other"
)

// entropySource feeds ulid.New with cryptographically sound randomness. A
// package-level var (rather than inlining rand.Reader) keeps the monotonic
// ULID generator swappable in tests without a global clock hook.
var entropySource = ulid.Monotonic(rand.Reader, 0)

// NewFingerprint mints a fresh 128-bit chunk identifier. ULIDs are
// time-ordered, so fingerprints minted during the same ingest sort in
// insertion order — useful for log correlation — while still serving as an
// opaque 128-bit primary key per the data model.
func NewFingerprint() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropySource)
	return id.String()
}
