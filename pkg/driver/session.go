package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/host"
	"snapcode/interpreter-go/pkg/interpreter"
	"snapcode/interpreter-go/pkg/resolver"
	"snapcode/interpreter-go/pkg/runtime"
)

// Target is something `snaprun` can execute: a program file, optionally
// described by a manifest.
type Target struct {
	Name        string
	ProgramPath string
	Manifest    *Manifest
}

// OpenTarget interprets path as a directory holding a manifest, a manifest
// file, or a JSON program.
func OpenTarget(path string) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	manifestPath := ""
	switch {
	case info.IsDir():
		if manifestPath, err = FindManifest(path); err != nil {
			return nil, err
		}
	case isManifestFile(path):
		manifestPath = path
	default:
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("target: resolve %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		return &Target{Name: name, ProgramPath: abs}, nil
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return &Target{Name: manifest.Name, ProgramPath: manifest.Entry, Manifest: manifest}, nil
}

func isManifestFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ManifestNames {
		if base == name {
			return true
		}
	}
	return false
}

// LoadProgram reads and decodes the target's program.
func (t *Target) LoadProgram() (*ast.Program, error) {
	data, err := os.ReadFile(t.ProgramPath)
	if err != nil {
		return nil, fmt.Errorf("program: read %s: %w", t.ProgramPath, err)
	}
	prog, err := DecodeProgram(data)
	if err != nil {
		return nil, fmt.Errorf("program: %s: %w", t.ProgramPath, err)
	}
	return prog, nil
}

// Session is one resolved program bound to its own host library and
// interpreter.
type Session struct {
	Name        string
	Program     *ast.Program
	Diagnostics []resolver.Diagnostic

	registry *host.Registry
	interp   *interpreter.Interpreter
	console  bytes.Buffer
	echo     io.Writer
	maxDepth int
}

type SessionOption func(*Session)

// WithEcho copies console output to w as the program prints it.
func WithEcho(w io.Writer) SessionOption {
	return func(s *Session) { s.echo = w }
}

func WithCallDepth(depth int) SessionOption {
	return func(s *Session) { s.maxDepth = depth }
}

// NewSession resolves prog against a fresh host library.
func NewSession(name string, prog *ast.Program, opts ...SessionOption) (*Session, error) {
	s := &Session{Name: name, Program: prog}
	for _, opt := range opts {
		opt(s)
	}
	var out io.Writer = &s.console
	if s.echo != nil {
		out = io.MultiWriter(&s.console, s.echo)
	}
	s.registry = host.NewRegistry(host.WithOutput(out))

	diagnostics, err := resolver.New(s.registry).Resolve(prog)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", name, err)
	}
	s.Diagnostics = diagnostics
	for _, d := range diagnostics {
		log.Warn("unresolved", "program", name, "detail", d.String())
	}

	var interpOpts []interpreter.Option
	if s.maxDepth > 0 {
		interpOpts = append(interpOpts, interpreter.WithMaxCallDepth(s.maxDepth))
	}
	s.interp = interpreter.New(s.registry, interpOpts...)
	s.registry.SetInvoker(s.interp)
	return s, nil
}

// Stop asks the running program to stop at its next statement boundary.
func (s *Session) Stop() { s.interp.Stop() }

// Interpreter exposes the session's interpreter.
func (s *Session) Interpreter() *interpreter.Interpreter { return s.interp }

// Report is the outcome of one session run as the CLI and the fixture
// checks see it.
type Report struct {
	Name   string
	Result interpreter.RunResult
	Stdout string
	Events []EventRecord
	// ResultText is the rendered return value, empty when the run
	// returned nothing.
	ResultText string
}

// EventRecord is an interpreter event with its value already rendered.
type EventRecord struct {
	Index     int
	Statement string
	Value     string
	HasValue  bool
}

// Run executes the program once. Cancelling ctx stops it.
func (s *Session) Run(ctx context.Context) *Report {
	s.console.Reset()
	report := &Report{Name: s.Name}
	sink := func(ev interpreter.Event) {
		rec := EventRecord{Index: ev.Index, Statement: string(ev.Statement.NodeType())}
		if hasValue(ev.Value) {
			rec.Value = s.render(ev.Value)
			rec.HasValue = true
		}
		report.Events = append(report.Events, rec)
	}
	report.Result = s.interp.RunProgram(ctx, s.Program, sink)
	if hasValue(report.Result.Value) {
		report.ResultText = s.render(report.Result.Value)
	}
	report.Stdout = s.console.String()
	return report
}

func hasValue(v runtime.Value) bool {
	if v == nil {
		return false
	}
	_, void := v.(runtime.VoidValue)
	return !void
}

func (s *Session) render(v runtime.Value) string {
	str, err := s.interp.Stringify(v)
	if err != nil {
		log.Debug("render failed", "program", s.Name, "err", err)
		return fmt.Sprintf("<%v>", err)
	}
	return str
}

// ConsoleLines splits the captured output into lines.
func (r *Report) ConsoleLines() []string {
	if r.Stdout == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(r.Stdout, "\n"), "\n")
}

// Check compares the report against an expectation and returns every
// mismatch.
func (r *Report) Check(expect *Expectation) []string {
	if expect == nil {
		return nil
	}
	var issues []string
	if got := r.Result.Outcome.String(); got != expect.Outcome {
		detail := ""
		if r.Result.Err != nil {
			detail = fmt.Sprintf(" (%v)", r.Result.Err)
		}
		issues = append(issues, fmt.Sprintf("expected outcome %s, got %s%s", expect.Outcome, got, detail))
	}
	if expect.Stdout != nil && *expect.Stdout != r.Stdout {
		issues = append(issues, fmt.Sprintf("expected stdout %q, got %q", *expect.Stdout, r.Stdout))
	}
	if expect.Result != nil && *expect.Result != r.ResultText {
		issues = append(issues, fmt.Sprintf("expected result %q, got %q", *expect.Result, r.ResultText))
	}
	return issues
}

// Execute loads, resolves and runs a target once. The manifest timeout,
// when set, bounds the run; an expired timeout reports a stopped run.
func Execute(ctx context.Context, t *Target, opts ...SessionOption) (*Report, error) {
	prog, err := t.LoadProgram()
	if err != nil {
		return nil, err
	}
	session, err := NewSession(t.Name, prog, opts...)
	if err != nil {
		return nil, err
	}
	if t.Manifest != nil && t.Manifest.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Manifest.Timeout)
		defer cancel()
	}
	return session.Run(ctx), nil
}
