// Package viz holds the terminal presentation layer: shared lipgloss
// styles for command output and a Bubble Tea model that loops over a
// frame sequence.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	Left  - Step back one frame while paused
//	Right - Step forward one frame while paused
//	Q     - Quit
package viz
