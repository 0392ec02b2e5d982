package mediarecorder

import "fmt"

type RecordingState int32

const (
	Inactive RecordingState = iota
	Recording
	Paused
)

func NewRecordingState(s string) (RecordingState, error) {
	switch s {
	case "inactive":
		return Inactive, nil
	case "recording":
		return Recording, nil
	case "paused":
		return Paused, nil
	}
	return Inactive, fmt.Errorf("unknown recording state: %s", s)
}

func (s RecordingState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	}
	return "unknown"
}
