// Package render turns validated DOT description text into image files.
//
// # Overview
//
// The package defines the [Renderer] capability the rest of graphcp depends
// on, and [Engine], its implementation on top of go-graphviz:
//
//   - CheckOnly compiles a description and lays it out without writing
//     anything, which makes it the authoritative syntax check
//   - RenderToFile lays a description out and writes one artifact
//
// Engine runs Graphviz as WebAssembly, so no system Graphviz install is
// needed for PNG and SVG. PDF output goes through SVG and the external
// rsvg-convert tool (from librsvg), see [ToPDF].
//
//	engine, err := render.NewEngine(ctx, logger)
//	defer engine.Close()
//	err = engine.RenderToFile(ctx, "digraph { a -> b }", render.FormatPNG, path, render.Options{DPI: 96})
//
// # Dimensions
//
// Requested image sizes are hints. [Dimensions.DPI] maps them to a
// resolution; the final pixel size is decided by the Graphviz layout.
package render
