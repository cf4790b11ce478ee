// Package render dispatches sampled rasters to a text-art renderer.
//
// The renderer is any [TextArtRenderer]; [Exec] runs an external program
// with the command line of the ascii tool. An [Adapter] drives the
// renderer in one of two modes:
//
//   - [reel.Persisted]: the renderer writes {dir}/{index}.txt and the
//     adapter removes the raster once the file exists.
//   - [reel.Captured]: the renderer prints colour annotated text which
//     the adapter keeps in memory.
//
// Frames are returned in index order whether or not rendering runs in
// parallel.
package render
