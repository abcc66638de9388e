// Package build runs the ordered transform stages that turn the artifact
// catalog into a finished build directory.
//
// Stages run strictly one after another: prepare_build_dir, convert, minify,
// inline, annotate, compress. The first failing stage aborts the build and
// the build directory is left as it is for inspection. Only a Result with
// status success may be handed to the publisher.
package build
