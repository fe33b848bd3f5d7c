// Package viz renders a running hybrid simulation in the terminal.
//
// The live view steps the engine on every frame, draws the phase trail on
// a Braille canvas with pen lifts at resets and charts the first output
// with asciigraph.
package viz
