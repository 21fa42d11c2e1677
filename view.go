package shadergen

// View is the presentation state of a Pipeline: what a user interface
// shows next to the surface.
type View struct {
	// Prompt is the normalised prompt of the latest submission.
	Prompt string

	// ShaderText is the generated source of the latest submission, empty
	// until its response has been parsed.
	ShaderText string

	// Error is the user-visible error line of the latest submission, empty
	// when it has not failed.
	Error string

	// Token identifies the latest submission. Zero before the first.
	Token uint64

	// Busy is true while the latest submission is in flight.
	Busy bool
}

// Failed reports whether the latest submission failed.
func (v View) Failed() bool {
	return v.Error != ""
}
