package ids

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Stamped returns a ULID whose time component is t. Ids stamped with the
// same millisecond still sort in creation order, so a file name built from
// a second-resolution timestamp plus Stamped is unique.
func Stamped(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// New is Stamped with the current time.
func New() string {
	return ulid.Make().String()
}

// RequestID returns a random identifier for correlating log lines of one request.
func RequestID() string {
	return uuid.NewString()
}
