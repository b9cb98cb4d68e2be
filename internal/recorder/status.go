package recorder

import "fmt"

// PassphrasePrompt is shown while no recording is in progress.
const PassphrasePrompt = "Recite the passphrase: 'My voice is my password'"

// Status is the position of a recorder in its recording cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingPermission
	StatusRecording
	StatusProcessing
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingPermission:
		return "awaiting_permission"
	case StatusRecording:
		return "recording"
	case StatusProcessing:
		return "processing"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// CanStart reports whether a new recording may begin.
func (s Status) CanStart() bool {
	return s == StatusIdle || s == StatusFinished
}

// Enabled reports whether the record button accepts presses.
func (s Status) Enabled() bool {
	return s != StatusAwaitingPermission && s != StatusProcessing
}

// ButtonLabel is the record button caption for the status.
func (s Status) ButtonLabel() string {
	switch s {
	case StatusIdle:
		return "Start Recording"
	case StatusAwaitingPermission:
		return "Requesting Mic"
	case StatusRecording:
		return "Stop Recording"
	case StatusProcessing:
		return "Processing..."
	case StatusFinished:
		return "Record Again"
	default:
		return "Error"
	}
}

// Prompt is the text shown in place of the waveform, empty while recording.
func (s Status) Prompt() string {
	switch s {
	case StatusRecording:
		return ""
	case StatusFinished:
		return "Recording complete!"
	default:
		return PassphrasePrompt
	}
}
