// Package workspace manages the build directory: the ephemeral staging area
// that holds one build's output until it is published.
package workspace
