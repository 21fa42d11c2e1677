// Package shadergen turns a natural-language prompt into a rendered shader.
//
// # Overview
//
// A Pipeline sends the prompt to a shader generation service, parses the
// returned pair of WGSL stages, compiles and links them into a program,
// binds a full-surface triangle to the program's position attribute and
// draws one frame:
//
//	client := remote.NewClient("http://localhost:4000/generate-shader")
//	target := render.NewPixmapTarget(300, 300)
//	gpu, err := native.Open(target)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Close()
//
//	p := shadergen.New(client, gpu)
//	defer p.Close()
//	if err := p.Submit(ctx, "a slowly rotating plasma"); err != nil {
//	    fmt.Println("Error:", err)
//	}
//
// # Failure model
//
// Every stage fails fast. The first failure aborts the submission, every
// GPU object the submission created is released, and the error is returned
// as a *StageError whose message is the line shown to the user. The
// previously displayed program stays active until a later submission
// succeeds. errors.As reaches the typed cause: *remote.Error,
// *remote.MalformedResponseError, *shader.CompileError, *shader.LinkError,
// *geometry.MissingAttributeError or *gpucore.ContextUnavailableError.
//
// # Concurrency
//
// Submissions may overlap while waiting on the network. Each takes a
// monotonically increasing token and a response that arrives after a newer
// submission started is discarded with ErrSuperseded. GPU work is
// serialised, so objects of two submissions are never created at once.
//
// # Packages
//
//   - gpucore: the graphics context interface and object IDs
//   - remote: generation service client and response parsing
//   - shader: compile/link state machine
//   - geometry: canonical vertex data and attribute binding
//   - render: draw call and pixel target
//   - backend/native: gpucore.Context on the WebGPU HAL
//   - preview: surface plus status panel as one image
package shadergen
