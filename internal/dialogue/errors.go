package dialogue

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a turn has no user id or no text. No state is touched.
var ErrInvalidInput = errors.New("userId and text are required")

// ExtractionError means the extractor failed outright (LLM call or unparseable reply).
// The session is left as it was so the user can resend the same message.
type ExtractionError struct {
	Reason   string
	RawReply string
	Err      error
}

// Error reports Reason only; extractors already include the cause there.
func (e *ExtractionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
