// Package git gives the publisher the handful of version control operations
// it needs, behind the Repository interface.
//
// Two backends exist: ExecRepository drives the git binary through a Runner
// that returns exit status and captured output instead of failing on a
// non-zero exit, and GoGitRepository works in process with go-git.
package git
