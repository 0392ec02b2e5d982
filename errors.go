package mediarecorder

import "errors"

var (
	// ErrInvalidState is returned by Start when the recorder is not
	// inactive.
	ErrInvalidState = errors.New("invalid state")

	// ErrSetupFailure wraps failures while acquiring capture resources
	// during Start.
	ErrSetupFailure = errors.New("setup failure")

	// ErrAborted is returned by Start when Stop was called before the
	// capture resources were ready.
	ErrAborted = errors.New("aborted")

	// ErrEngineFailure wraps failures reported by the muxing engine.
	ErrEngineFailure = errors.New("engine failure")
)
