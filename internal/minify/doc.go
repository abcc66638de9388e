// Package minify provides the minification capability used by the build:
// the public HTTP minification services, an in-process minifier for offline
// builds, and a passthrough.
package minify
