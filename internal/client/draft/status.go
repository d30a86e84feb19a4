// Package draft keeps an editable screen's local edits in step with the
// remote profile record: edits are debounced, unchanged drafts are never
// written, and save progress is reported as a SaveStatus.
package draft

import "fmt"

// SaveStatus is the save indicator of one synchronizer.
type SaveStatus int

const (
	Idle SaveStatus = iota
	Saving
	Saved
	Error
)

func (s SaveStatus) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("SaveStatus(%d)", int(s))
	}
}
