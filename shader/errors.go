package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/shadergen/gpucore"
)

// ErrIncompletePair is returned by Build when a stage has no source text.
var ErrIncompletePair = errors.New("shader: pair is missing a stage source")

// CompileError reports that a stage failed to compile.
type CompileError struct {
	Stage gpucore.ShaderStage

	// Log is the driver's info log, verbatim. It may be empty.
	Log string
}

func (e *CompileError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("%s shader failed to compile", e.Stage)
	}
	return fmt.Sprintf("%s shader failed to compile: %s", e.Stage, e.Log)
}

// LinkError reports that the compiled stages failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	if e.Log == "" {
		return "program failed to link"
	}
	return "program failed to link: " + e.Log
}
