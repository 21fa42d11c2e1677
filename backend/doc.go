// Package backend is the registry of graphics contexts a Pipeline can
// draw with.
//
// Backends register a Factory from an init() function and are opened by
// name at runtime. The WebGPU backends are registered by importing
// backend/native:
//
//	import _ "github.com/gogpu/shadergen/backend/native"
//
// # Backend Selection
//
// Use OpenDefault to open the best available backend, or Open to request
// a specific one by name:
//
//	target := render.NewPixmapTarget(300, 300)
//	ctx, err := backend.Open("vulkan", target)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Close()
//
// # Available Backends
//
//   - "vulkan": Vulkan device through the WebGPU HAL
//   - "noop": headless HAL that compiles and links but renders nothing
package backend
