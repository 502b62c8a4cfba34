package smt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sigil/internal/trace"
)

// Status is the outcome of checking one condition.
type Status string

const (
	StatusVerified   Status = "verified"
	StatusUnverified Status = "unverified"
	StatusUnknown    Status = "unknown"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
	StatusSkipped    Status = "skipped"
)

// DefaultTimeout bounds a single solver run.
const DefaultTimeout = 5 * time.Second

// ErrSolverNotFound is returned by FindZ3 when no z3 binary is on PATH.
var ErrSolverNotFound = errors.New("z3 not found on PATH")

// Outcome pairs a condition with the solver's verdict.
type Outcome struct {
	Condition *Condition
	Status    Status
	Message   string
	Output    string
}

// Solver runs an external SMT solver that reads SMT-LIB from stdin.
type Solver struct {
	Path    string
	Timeout time.Duration
	// Jobs limits concurrent solver processes in CheckAll; 0 means one per
	// condition.
	Jobs int
}

// FindZ3 locates z3 on PATH.
func FindZ3() (*Solver, error) {
	path, err := exec.LookPath("z3")
	if err != nil {
		return nil, ErrSolverNotFound
	}
	return &Solver{Path: path, Timeout: DefaultTimeout}, nil
}

// Check runs the solver on one condition.
func (s *Solver) Check(ctx context.Context, c *Condition) Outcome {
	out := Outcome{Condition: c}
	if c.Skipped != "" {
		out.Status, out.Message = StatusSkipped, c.Skipped
		return out
	}
	if c.Checks == 0 {
		out.Status, out.Message = StatusVerified, "no reachable exit"
		return out
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	cmd := exec.CommandContext(ctx, s.Path, "-in", fmt.Sprintf("-T:%d", secs))
	cmd.Stdin = strings.NewReader(c.Script)
	raw, err := cmd.CombinedOutput()
	out.Output = strings.TrimSpace(string(raw))
	if ctx.Err() == context.DeadlineExceeded {
		out.Status, out.Message = StatusTimeout, fmt.Sprintf("solver exceeded %s", timeout)
		return out
	}
	status, msg := Interpret(out.Output, c.Checks)
	if err != nil && status == StatusError && msg == "" {
		msg = err.Error()
	}
	out.Status, out.Message = status, msg
	return out
}

// CheckAll checks conditions concurrently and returns outcomes in input
// order.
func (s *Solver) CheckAll(ctx context.Context, conds []*Condition) []Outcome {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "smt", trace.CurrentSpan(ctx).SpanID).
		WithExtra("conditions", strconv.Itoa(len(conds)))
	defer span.End("")

	out := make([]Outcome, len(conds))
	g, gctx := errgroup.WithContext(ctx)
	if s.Jobs > 0 {
		g.SetLimit(s.Jobs)
	}
	for i, c := range conds {
		g.Go(func() error {
			cs := trace.Begin(tracer, trace.ScopeCondition, c.Function, span.ID()).WithExtra("contract", c.Text)
			out[i] = s.Check(gctx, c)
			cs.End(string(out[i].Status))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Interpret reads solver output for a script with the given number of
// (check-sat) commands. Every answer must be unsat for the condition to
// hold; a single sat is a counterexample.
func Interpret(output string, checks int) (Status, string) {
	var answers []string
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "sat", line == "unsat", line == "unknown", line == "timeout":
			answers = append(answers, line)
		case strings.HasPrefix(line, "(error"):
			return StatusError, line
		}
	}
	for _, a := range answers {
		if a == "sat" {
			return StatusUnverified, "counterexample found"
		}
	}
	for _, a := range answers {
		switch a {
		case "timeout":
			return StatusTimeout, "solver gave up"
		case "unknown":
			return StatusUnknown, "solver could not decide"
		}
	}
	if len(answers) != checks {
		return StatusError, fmt.Sprintf("expected %d answers, got %d", checks, len(answers))
	}
	return StatusVerified, ""
}
