// Package publish moves a successful build into the publish branch of the
// local git repository.
//
// A publish is a fixed sequence of states:
//
//	Idle -> PreconditionChecked -> BranchSwitched -> Purged -> Populated -> Committed -> Restored
//
// It starts only on a clean work tree and always tries to return to the
// original branch, also when a transition fails. Nothing is pushed.
//
// The publisher holds no locks. Two publishes against the same work tree at
// the same time are undefined; callers must not run them concurrently.
//
// Purging removes every top-level file of the publish branch that matches a
// purge pattern, including files this tool did not produce.
//
// The build directory must lie outside the work tree. Staging on the publish
// branch would otherwise commit it, and restoring the original branch would
// delete it.
package publish
