package shader

import "fmt"

// State is a step of the program build.
type State uint8

// Build states in the order Build visits them, followed by the terminal
// failure states.
const (
	StateCreateVertex State = iota
	StateCompileVertex
	StateCreateFragment
	StateCompileFragment
	StateCreateProgram
	StateAttach
	StateLink
	StateActive

	StateVertexCompileFailed
	StateFragmentCompileFailed
	StateLinkFailed
)

var stateNames = [...]string{
	StateCreateVertex:          "CreateVertex",
	StateCompileVertex:         "CompileVertex",
	StateCreateFragment:        "CreateFragment",
	StateCompileFragment:       "CompileFragment",
	StateCreateProgram:         "CreateProgram",
	StateAttach:                "Attach",
	StateLink:                  "Link",
	StateActive:                "Active",
	StateVertexCompileFailed:   "VertexCompileFailed",
	StateFragmentCompileFailed: "FragmentCompileFailed",
	StateLinkFailed:            "LinkFailed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateActive, StateVertexCompileFailed, StateFragmentCompileFailed, StateLinkFailed:
		return true
	}
	return false
}

// Failed reports whether s is one of the failure states.
func (s State) Failed() bool {
	return s.Terminal() && s != StateActive
}
