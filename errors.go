package shadergen

import "errors"

// Sentinel errors returned by Pipeline.
var (
	// ErrEmptyPrompt is returned by Submit for a prompt that is empty after
	// trimming. Nothing else happens.
	ErrEmptyPrompt = errors.New("shadergen: empty prompt")

	// ErrSuperseded is returned by a submission whose response arrived
	// after a newer submission started. Its result is discarded.
	ErrSuperseded = errors.New("shadergen: superseded by a newer submission")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("shadergen: pipeline closed")

	// ErrNothingToDraw is returned by Redraw before the first successful
	// submission.
	ErrNothingToDraw = errors.New("shadergen: no active shader")
)

// Stage names the step of a submission that failed.
type Stage string

// Submission stages, in order.
const (
	StageRemote Stage = "remote"
	StageParse  Stage = "parse"
	StageBuild  Stage = "build"
	StageBind   Stage = "bind"
	StageDraw   Stage = "draw"
)

// renderPrefix starts the message of every GPU-side failure.
const renderPrefix = "Failed to render shader: "

// rendering reports whether s runs on the graphics context.
func (s Stage) rendering() bool {
	return s == StageBuild || s == StageBind || s == StageDraw
}

// StageError is the error of a failed submission. Its message is the
// single line shown to the user; Err is the typed cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage.rendering() {
		return renderPrefix + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the cause.
func (e *StageError) Unwrap() error { return e.Err }
