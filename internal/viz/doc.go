// Package viz is the terminal front end for the cart-pole simulator.
//
// [Model] is a Bubble Tea program that ticks the simulator at 60 Hz and
// draws the world on a braille [Canvas] next to a lipgloss side panel with
// the live angle history and P/D slider bars.
//
// # Key Bindings
//
//	Space      - Pause/Resume
//	R          - Reset the world (gains are kept)
//	Tab        - Select the P or D gain
//	Up/Down    - Step the selected gain
//	Left/Right - Push the bob
//	T          - Cycle color themes
//	?          - Show help overlay
//
// A left mouse click pushes the bob horizontally away from the clicked
// column, so the program should run with mouse reporting enabled.
package viz
