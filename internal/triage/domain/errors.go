package domain

import "fmt"

// GatewayError means the mail gateway failed to fetch or send a message.
// Fatal for the current run; recorded on the outcome, never retried here.
type GatewayError struct {
	Op  string // "get_message", "send_reply", "mark_processed"
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("mail gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// MalformedResponseError means no JSON object could be recovered from the
// model's output. A non-zero BraceDeficit signals truncated output, which
// callers may treat as retryable.
type MalformedResponseError struct {
	Reason       string
	BraceDeficit int    // open minus close braces; non-zero means truncation
	Context      string // first ~100 chars of the offending text
	Err          error
}

func (e *MalformedResponseError) Error() string {
	if e.BraceDeficit != 0 {
		return fmt.Sprintf("malformed model response: %s (brace deficit %d)", e.Reason, e.BraceDeficit)
	}
	if e.Context != "" {
		return fmt.Sprintf("malformed model response: %s near %q", e.Reason, e.Context)
	}
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ValidationError means a referenced entity does not exist. Surfaced
// verbatim (it names the missing id) so an operator can fix the upstream
// data.
type ValidationError struct {
	Field string // "tenant_id", "module_id", "work_item_id"
	ID    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("referenced %s %q does not exist", e.Field, e.ID)
}

// CorrelationError wraps a failure in the best-effort correlation step.
// Logged only; never propagated and never written to the outcome.
type CorrelationError struct {
	Err error
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("correlation failed: %v", e.Err)
}

func (e *CorrelationError) Unwrap() error { return e.Err }

// LabelingError wraps a failure to mark the source message as processed.
// Logged only; must never revert a successful persist.
type LabelingError struct {
	Err error
}

func (e *LabelingError) Error() string {
	return fmt.Sprintf("labeling failed: %v", e.Err)
}

func (e *LabelingError) Unwrap() error { return e.Err }
