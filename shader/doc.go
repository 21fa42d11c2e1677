// Package shader turns a vertex/fragment source pair into a linked program.
//
// [Builder] drives a fixed state machine against a [gpucore.Context]:
//
//	CreateVertex -> CompileVertex -> CreateFragment -> CompileFragment
//	    -> CreateProgram -> Attach -> Link -> Active
//
// A compile failure stops in VertexCompileFailed or FragmentCompileFailed
// with the driver's info log in a [*CompileError]; a link failure stops in
// LinkFailed with a [*LinkError]. In every failure case the objects
// created by the build are deleted before Build returns, so only an Active
// [Program] ever escapes the builder.
package shader
