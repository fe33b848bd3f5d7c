// Package controllers provides feedback inputs for hybrid simulations.
package controllers
