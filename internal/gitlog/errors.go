package gitlog

import "fmt"

// RepositoryError indicates the repo path is not a usable git
// repository, or the git binary itself is missing.
type RepositoryError struct {
	Path string
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("not a usable git repository at %s: %v", e.Path, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// RevisionNotFoundError indicates a start or end ref could not be
// resolved to a commit. It names the failing ref: both refs are equally
// likely culprits and the operator needs to know which one to fix.
type RevisionNotFoundError struct {
	Ref string
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("revision %q could not be resolved", e.Ref)
}

// InvocationError indicates a git subprocess failed mid-run: non-zero
// exit, timeout, or any other execution failure after the repository
// itself was validated.
type InvocationError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %v: %v: %s", e.Args, e.Err, e.Stderr)
	}
	return fmt.Sprintf("git %v: %v", e.Args, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
