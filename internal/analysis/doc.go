// Package analysis turns stored hybrid trajectories into phase portraits
// and jump event tables.
//
// Indices address the extended state: 0 is t, 1 is j and 2.. are the
// physical state components. A portrait is split into flow segments at
// every jump so that resets are not drawn as continuous motion.
package analysis
