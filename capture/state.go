package capture

// State is the controller's position in the recording state machine.
// Transitions only go forward: Idle, Recording, Stopped.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// BlockKind is how the controller treated a block.
type BlockKind string

const (
	BlockSpeech  BlockKind = "speech"
	BlockSilence BlockKind = "silence"
	BlockIgnored BlockKind = "ignored"
)

// StopReason explains why a recording session ended.
type StopReason string

const (
	StopSilence     StopReason = "silence"
	StopCanceled    StopReason = "canceled"
	StopSourceEnded StopReason = "source_ended"
	StopMaxDuration StopReason = "max_duration"
)
