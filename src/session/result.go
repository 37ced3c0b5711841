package session

import "screen-translator/src/screenshot"

// Outcome is how a run ended.
type Outcome int

const (
	Completed Outcome = iota
	// Cancelled: the user backed out of the selection.
	Cancelled
	// NothingSelected: the selection had zero width or height.
	NothingSelected
	// Superseded: a newer run, or shutdown, cancelled this one.
	Superseded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case NothingSelected:
		return "nothing selected"
	case Superseded:
		return "superseded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result describes a finished run. Fields past Outcome are filled as far as
// the run got.
type Result struct {
	Outcome    Outcome
	Region     screenshot.Region
	Recognized string
	Translated string
	Language   string
	Err        error
}
