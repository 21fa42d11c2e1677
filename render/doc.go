// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws a built program onto the drawable surface.
//
// # Core Types
//
//   - State: the program and geometry that make up the current frame
//   - Renderer: issues the draw call for a State on a gpucore.Context
//   - Target: where rendered pixels end up
//   - PixmapTarget: CPU-backed *image.RGBA target filled by readback
//
// # Usage
//
//	target := render.NewPixmapTarget(300, 300)
//	ctx, _ := native.Open(target)
//	r := render.NewRenderer(ctx, render.DefaultBackground)
//	if err := r.Draw(&render.State{Program: prog, Geometry: buf}); err != nil {
//	    log.Printf("draw failed: %v", err)
//	}
//	png.Encode(f, target.Image())
//
// # Thread Safety
//
// Renderers are NOT thread-safe. The pipeline serializes all GPU work, and
// other callers must do the same.
package render
