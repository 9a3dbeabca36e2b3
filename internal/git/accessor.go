package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// EmptyTreeHash is git's well-known empty tree, used as the diff origin when
// no commit exists before a window's start
const EmptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

const (
	// DefaultFetchTimeout bounds `git fetch`
	DefaultFetchTimeout = 300 * time.Second
	// DefaultCommandTimeout bounds every other git invocation
	DefaultCommandTimeout = 120 * time.Second
)

// Validation failure reasons attached to ValidationError context under "reason"
const (
	ReasonNotADirectory          = "not_a_directory"
	ReasonNotAVersionControlRoot = "not_a_version_control_root"
)

// noCommitsYet matches git's complaint about an unborn branch. That case is
// an empty, successful result rather than a failure.
var noCommitsYet = regexp.MustCompile(`your current branch '[^']*' does not have any commits yet`)

// RepositoryRef identifies a validated working copy by canonical local path
type RepositoryRef struct {
	Path string
}

// CanonicalPath returns the absolute, symlink-resolved form of path. When the
// path cannot be resolved it falls back to the cleaned absolute path.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Validate checks that path is a directory holding a .git metadata directory
func Validate(path string) (RepositoryRef, error) {
	if strings.TrimSpace(path) == "" {
		return RepositoryRef{}, errors.ValidationError("repository path is empty").
			WithContext("reason", ReasonNotADirectory)
	}

	canonical := CanonicalPath(path)

	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return RepositoryRef{}, errors.ValidationErrorf("repository path %s does not exist or is not a directory", path).
			WithContext("reason", ReasonNotADirectory)
	}

	gitInfo, err := os.Stat(filepath.Join(canonical, ".git"))
	if err != nil || !gitInfo.IsDir() {
		return RepositoryRef{}, errors.ValidationErrorf("%s is not a valid git repository", path).
			WithContext("reason", ReasonNotAVersionControlRoot)
	}

	return RepositoryRef{Path: canonical}, nil
}

// LookupTool verifies that the git binary can be found
func LookupTool(binary string) error {
	if binary == "" {
		binary = "git"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return errors.ToolUnavailableError(err, fmt.Sprintf("%s command not found; is git installed and in your PATH?", binary))
	}
	return nil
}

// Outcome tags a successful Result
type Outcome int

const (
	// OutcomeOK - the command exited zero
	OutcomeOK Outcome = iota
	// OutcomeEmpty - the command failed only because the branch has no commits yet
	OutcomeEmpty
)

// Result is the captured output of one git invocation
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Outcome  Outcome
}

// IsEmpty reports whether the result is the benign "no commits yet" case
func (r *Result) IsEmpty() bool {
	return r != nil && r.Outcome == OutcomeEmpty
}

// Option configures a Repo
type Option func(*Repo)

// WithBinary overrides the git executable
func WithBinary(binary string) Option {
	return func(r *Repo) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithCommandTimeout bounds every non-fetch invocation. Zero disables the bound.
func WithCommandTimeout(d time.Duration) Option {
	return func(r *Repo) {
		r.commandTimeout = d
	}
}

// Repo runs git against one validated working copy
type Repo struct {
	ref            RepositoryRef
	binary         string
	commandTimeout time.Duration
}

// Open returns a Repo for an already validated reference
func Open(ref RepositoryRef, opts ...Option) *Repo {
	r := &Repo{
		ref:            ref,
		binary:         "git",
		commandTimeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ref returns the repository reference this Repo runs against
func (r *Repo) Ref() RepositoryRef {
	return r.ref
}

// Run executes git with args inside the working copy, bounded by the
// command timeout. A non-zero exit is a CommandError unless stderr reports an
// unborn branch, in which case the Result is tagged OutcomeEmpty.
func (r *Repo) Run(ctx context.Context, args ...string) (*Result, error) {
	return r.run(ctx, r.commandTimeout, args...)
}

func (r *Repo) run(ctx context.Context, timeout time.Duration, args ...string) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.ref.Path
	// LC_ALL=C keeps diff summaries in the English form the parser expects
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	name := "git " + firstArg(args)

	if ctx.Err() == context.DeadlineExceeded {
		return result, errors.TimeoutError(ctx.Err(), fmt.Sprintf("%s timed out after %s", name, timeout)).
			WithContext("args", strings.Join(args, " "))
	}
	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return result, errors.ToolUnavailableError(err, fmt.Sprintf("%s command not found; is git installed and in your PATH?", r.binary))
		}
		return result, errors.CommandErrorf("%s could not start: %v", name, err).
			WithContext("args", strings.Join(args, " "))
	}

	if noCommitsYet.MatchString(result.Stderr) {
		result.Outcome = OutcomeEmpty
		result.Stdout = ""
		return result, nil
	}

	return result, errors.CommandErrorf("%s failed (exit %d): %s", name, result.ExitCode, strings.TrimSpace(result.Stderr)).
		WithContext("args", strings.Join(args, " ")).
		WithContext("exit_code", result.ExitCode)
}

// FetchResult reports the outcome of a fetch. Fetch never fails the caller;
// an unsuccessful fetch carries an advisory and analysis continues with the
// history already present locally.
type FetchResult struct {
	Fetched  bool
	Advisory string
	Duration time.Duration
}

// Fetch updates remote-tracking refs from every configured remote
func (r *Repo) Fetch(ctx context.Context, timeout time.Duration) FetchResult {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	start := time.Now()

	remotes, err := r.Run(ctx, "remote")
	if err != nil {
		return FetchResult{
			Advisory: fmt.Sprintf("could not list remotes (%v); continuing with local history", err),
			Duration: time.Since(start),
		}
	}
	if strings.TrimSpace(remotes.Stdout) == "" {
		return FetchResult{
			Advisory: "no remotes configured; continuing with local history",
			Duration: time.Since(start),
		}
	}

	if _, err := r.run(ctx, timeout, "fetch", "--all", "--prune", "--quiet"); err != nil {
		advisory := fmt.Sprintf("fetch failed (%v); continuing with local history", err)
		if errors.HasType(err, errors.ErrorTypeTimeout) {
			advisory = fmt.Sprintf("fetch timed out after %s; continuing with local history", timeout)
		}
		return FetchResult{Advisory: advisory, Duration: time.Since(start)}
	}

	return FetchResult{Fetched: true, Duration: time.Since(start)}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
