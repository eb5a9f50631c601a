// Package pkg provides the core libraries for graphcp.
//
// # Overview
//
// graphcp validates Graphviz DOT descriptions and writes them, or images
// rendered from them, into a single output directory that callers cannot
// escape. The pkg directory is organized by concern:
//
//  1. [pathguard] - Path canonicalization, confinement and name sanitizing
//  2. [dot] - Structural DOT checks in front of the renderer
//  3. [render] - The Renderer interface and its go-graphviz Engine
//  4. [store] - The output root and atomic file writes
//  5. [pipeline] - The three tool operations (set root, write .dot, render image)
//  6. [cache] - Rendered artifact cache (file, redis, none)
//  7. [errors] - Coded errors shared by every layer
//  8. [config], [observability], [buildinfo] - Ambient support
//
// # Architecture
//
// The data flow of a generate_image call:
//
//	DOT description
//	     ↓
//	[dot] package (shape, braces, renderer check)
//	     ↓
//	[store] + [pathguard] packages (resolve a confined target path)
//	     ↓
//	[cache] or [render] package (produce bytes into a temp file)
//	     ↓
//	rename over <root>/<name>.<format>
//
// # Quick Start
//
//	engine, _ := render.NewEngine(ctx, logger)
//	st := store.New(nil, store.Options{Logger: logger})
//	runner := pipeline.NewRunner(st, nil, engine, logger)
//	res, err := runner.EmitRenderedImage(ctx, pipeline.ImageRequest{
//	    Description: "digraph { a -> b }",
//	    Width:       500,
//	    Height:      500,
//	})
package pkg
