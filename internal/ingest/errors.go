package ingest

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord indicates an import record from which no usable
// title, DOI, or PMID could be extracted. Malformed records are
// skipped and counted; the batch otherwise proceeds.
var ErrMalformedRecord = errors.New("malformed import record")

// RecordError wraps ErrMalformedRecord with the position and source
// context of the failing record.
type RecordError struct {
	Index  int    // 0-based position within the batch
	Source string // source kind or filename for context
	Reason string
}

func (e *RecordError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("record %d (%s): %s", e.Index+1, e.Source, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.Index+1, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }

// IsMalformed reports whether err is a malformed-record error.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}
