// Package transform holds the file-level build primitives that run after
// conversion and minification: asset inlining and its verification, the
// provenance annotation, and gzip compression.
//
// The inliner only understands bare local file names. A stylesheet or script
// referenced by URL, such as href="https://cdn.example.com/x.css", is looked
// up as x.css in the build directory and fails the build when that file is
// absent, rather than leaving a page that loads some assets remotely.
package transform
