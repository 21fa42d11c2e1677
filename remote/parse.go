package remote

import (
	"encoding/json"
	"strings"

	"github.com/gogpu/shadergen/shader"
)

type pairDocument struct {
	VertexShader   *string `json:"vertexShader"`
	FragmentShader *string `json:"fragmentShader"`
}

// ParsePair decodes the shader_code document into a shader pair.
//
// Both fields must be present and contain non-whitespace text; otherwise a
// *MalformedResponseError is returned. The sources are returned verbatim.
func ParsePair(raw string) (shader.Pair, error) {
	var doc pairDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return shader.Pair{}, &MalformedResponseError{Reason: "shader_code is not a JSON object", Err: err}
	}

	switch {
	case doc.VertexShader == nil:
		return shader.Pair{}, &MalformedResponseError{Reason: `missing "vertexShader"`}
	case doc.FragmentShader == nil:
		return shader.Pair{}, &MalformedResponseError{Reason: `missing "fragmentShader"`}
	case strings.TrimSpace(*doc.VertexShader) == "":
		return shader.Pair{}, &MalformedResponseError{Reason: `empty "vertexShader"`}
	case strings.TrimSpace(*doc.FragmentShader) == "":
		return shader.Pair{}, &MalformedResponseError{Reason: `empty "fragmentShader"`}
	}

	return shader.Pair{Vertex: *doc.VertexShader, Fragment: *doc.FragmentShader}, nil
}
