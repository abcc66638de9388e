// Package errors provides the classified error primitives used across sitepub.
//
// Every failure the pipeline can report carries one category:
//
//   - conversion: a document could not be rendered to markup
//   - service: the minification service failed or rejected the input
//   - reference: a stylesheet or script tag in the primary markup cannot be inlined
//   - precondition: a publish was refused before touching the repository
//   - repository: a version control operation failed during publish
//
// plus the ambient config, validation, filesystem and internal categories.
// None of them is retried automatically.
//
// Example usage:
//
//	err := errors.ServiceError("minification rejected").
//		WithContext("artifact", "style").
//		WithContext("reason", "rejected").
//		WithCause(originalErr).
//		Build()
package errors
