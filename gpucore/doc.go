// Package gpucore defines the graphics context boundary used by shadergen.
//
// A [Context] is the drawable surface's graphics API: shader stage objects,
// program objects, vertex buffers, attribute lookup and draw calls. The
// acquisition pipeline (shader.Builder, geometry.Binder, render.Renderer)
// is written once against this interface, while thin backends implement it:
//
//	               +------------------+
//	               |  shadergen core  |
//	               | builder / binder |
//	               |    / renderer    |
//	               +--------+---------+
//	                        |
//	                 gpucore.Context
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          | gpucore/gputest |
//	| (wgpu HAL+naga) |          |   (recording)   |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// Objects are referred to by opaque IDs ([ShaderID], [ProgramID],
// [BufferID]). Every Create* has a matching Delete*; IDs become invalid
// after deletion and are never reused.
//
// # Availability
//
// A context may be absent or lost. [Context.Available] returns a
// [*ContextUnavailableError] in that case and callers must not issue any
// other call.
package gpucore
