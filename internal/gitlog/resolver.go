// Package gitlog resolves revision ranges by shelling out to git and
// parses the log into typed commit records.
package gitlog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// Field and record separators for the batched log format. ASCII 0x1e /
// 0x1f cannot appear in commit metadata, so splitting is unambiguous.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

const logFormat = "%x1e%H%x1f%an%x1f%ad%x1f%s"

// DefaultTimeout bounds each git subprocess when the caller configures
// no explicit timeout.
const DefaultTimeout = 60 * time.Second

// Resolver answers revision-range queries against one repository.
type Resolver struct {
	RepoPath string
	Timeout  time.Duration
}

// NewResolver creates a Resolver for the repository at repoPath.
func NewResolver(repoPath string) *Resolver {
	return &Resolver{RepoPath: repoPath, Timeout: DefaultTimeout}
}

// Resolve returns the first-parent commits from startRef (exclusive) to
// endRef (inclusive), oldest first. First-parent traversal follows the
// main line through merges, so each record corresponds to one
// integrated change rather than every commit of a feature branch.
func (r *Resolver) Resolve(ctx context.Context, startRef, endRef string) ([]domain.CommitRecord, error) {
	if err := r.checkRepository(ctx); err != nil {
		return nil, err
	}
	for _, ref := range []string{startRef, endRef} {
		if err := r.checkRevision(ctx, ref); err != nil {
			return nil, err
		}
	}

	out, err := r.git(ctx,
		"log",
		"--first-parent",
		"--reverse",
		"--name-only",
		"--date=iso-strict",
		"--pretty=format:"+logFormat,
		startRef+".."+endRef,
	)
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}

func (r *Resolver) checkRepository(ctx context.Context) error {
	info, err := os.Stat(r.RepoPath)
	if err != nil {
		return &RepositoryError{Path: r.RepoPath, Err: err}
	}
	if !info.IsDir() {
		return &RepositoryError{Path: r.RepoPath, Err: errors.New("not a directory")}
	}
	if _, err := r.git(ctx, "rev-parse", "--git-dir"); err != nil {
		var inv *InvocationError
		if errors.As(err, &inv) && !timedOut(inv) {
			return &RepositoryError{Path: r.RepoPath, Err: errors.New(strings.TrimSpace(inv.Stderr))}
		}
		return err
	}
	return nil
}

func (r *Resolver) checkRevision(ctx context.Context, ref string) error {
	if ref == "" {
		return &RevisionNotFoundError{Ref: ref}
	}
	if _, err := r.git(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}"); err != nil {
		var inv *InvocationError
		if errors.As(err, &inv) && !timedOut(inv) {
			return &RevisionNotFoundError{Ref: ref}
		}
		return err
	}
	return nil
}

// timedOut reports whether a git failure was the timeout (or the
// caller's cancellation) rather than git rejecting the input. Such
// failures keep their InvocationError identity instead of being
// reinterpreted as a bad repository or an unknown revision.
func timedOut(inv *InvocationError) bool {
	return errors.Is(inv.Err, context.DeadlineExceeded) || errors.Is(inv.Err, context.Canceled)
}

// git runs one git subprocess under the resolver's timeout. A missing
// binary surfaces as RepositoryError; every other failure as
// InvocationError.
func (r *Resolver) git(ctx context.Context, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.RepoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &RepositoryError{Path: r.RepoPath, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &InvocationError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// parseLog splits the batched \x1e/\x1f delimited log output into
// commit records. Malformed blocks are skipped rather than aborting:
// the format is fixed by us, so a bad block means an empty trailer,
// not missing data.
func parseLog(raw string) []domain.CommitRecord {
	var records []domain.CommitRecord
	for _, block := range strings.Split(raw, recordSep) {
		block = strings.Trim(block, "\n")
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		header := strings.Split(lines[0], fieldSep)
		if len(header) != 4 {
			continue
		}
		rec := domain.CommitRecord{
			SHA:     header[0],
			Author:  header[1],
			Date:    header[2],
			Subject: header[3],
		}
		if number, _, ok := domain.ParsePRSuffix(rec.Subject); ok {
			rec.PRNumber = number
		}
		for _, f := range lines[1:] {
			if f = strings.TrimSpace(f); f != "" {
				rec.Files = append(rec.Files, f)
			}
		}
		records = append(records, rec)
	}
	return records
}
