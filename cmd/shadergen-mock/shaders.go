package main

import (
	"encoding/json"
	"strings"
)

// pair is the shader document nested in shader_code.
type pair struct {
	Vertex   string `json:"vertexShader"`
	Fragment string `json:"fragmentShader"`
}

const flatVertex = `@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}`

const uvVertex = `struct VsOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> VsOut {
    var out: VsOut;
    out.clip = vec4<f32>(position, 0.0, 1.0);
    out.uv = position * 0.5 + vec2<f32>(0.5, 0.5);
    return out;
}`

func solidFragment(r, g, b string) string {
	return `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(` + r + `, ` + g + `, ` + b + `, 1.0);
}`
}

const gradientFragment = `@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv.x, uv.y, 1.0 - uv.x, 1.0);
}`

// brokenFragment has a type error naga rejects.
const brokenFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec5<f32>(1.0, 0.0, 0.0, 1.0);
}`

// noattrVertex reads its input under a name other than "position".
const noattrVertex = `@vertex
fn vs_main(@location(0) corner: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(corner, 0.0, 1.0);
}`

// catalog maps prompt keywords to canned pairs, in match order.
var catalog = []struct {
	keyword string
	pair    pair
}{
	{"broken", pair{flatVertex, brokenFragment}},
	{"noattr", pair{noattrVertex, solidFragment("1.0", "1.0", "1.0")}},
	{"red", pair{flatVertex, solidFragment("1.0", "0.0", "0.0")}},
	{"green", pair{flatVertex, solidFragment("0.0", "1.0", "0.0")}},
	{"blue", pair{flatVertex, solidFragment("0.0", "0.0", "1.0")}},
	{"gradient", pair{uvVertex, gradientFragment}},
}

// lookup returns the pair for the first keyword found in prompt, or the
// gradient when none matches.
func lookup(prompt string) (string, pair) {
	p := strings.ToLower(prompt)
	for _, e := range catalog {
		if strings.Contains(p, e.keyword) {
			return e.keyword, e.pair
		}
	}
	return "gradient", pair{uvVertex, gradientFragment}
}

// shaderCode encodes p the way the service nests it in shader_code.
func shaderCode(p pair) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
