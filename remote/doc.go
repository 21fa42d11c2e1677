// Package remote talks to the shader generation service.
//
// The service accepts a JSON prompt and answers with an envelope whose
// shader_code field is itself a JSON document holding the two stage
// sources:
//
//	POST /generate-shader  {"prompt": "plasma with purple tones"}
//	200 OK                 {"success": true, "shader_code": "{\"vertexShader\": ..., \"fragmentShader\": ...}"}
//
// [Client.Generate] performs the call and validates the envelope;
// [ParsePair] decodes the nested document into a [shader.Pair].
package remote
