// Package sampler reduces an animation to an evenly strided set of key
// frames and writes each one as a PNG raster for the renderer.
//
// Key frame i is taken from animation frame (total/k)*i using integer
// division. When k exceeds the frame count the stride is zero and the
// first frame is repeated; this quirk is kept so that output matches
// earlier transcodes of the same source.
package sampler
