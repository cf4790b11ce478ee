// Package reel provides the core types shared by the sampling, rendering
// and playback stages of a text-art animation.
//
// A reel is built in three steps:
//
//   - an [AnimationSource] is sampled into [RasterFrame] values,
//   - each raster is rendered into a [TextFrame] in a given [Mode],
//   - the ordered text frames are replayed by a player.
//
// # Example
//
//	src, _ := sampler.Open("cat.gif")
//	rasters, _ := sampler.Sample(ctx, src, 10, dir)
//	frames, _ := adapter.RenderAll(ctx, rasters, 0.25, dir)
//	player.Play(ctx, reel.Contents(frames))
//
// # Errors
//
// Failures in any stage are reported as a [*FrameError] that names the
// stage and the offending frame index, and wraps one of the sentinel
// errors declared in this package.
package reel
