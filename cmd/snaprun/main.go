package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"snapcode/interpreter-go/internal/logger"
	"snapcode/interpreter-go/pkg/driver"
	"snapcode/interpreter-go/pkg/interpreter"
)

const cliToolVersion = "snaprun 0.1.0-dev"

const (
	exitCompleted = 0
	exitFailed    = 1
	exitStopped   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return newCLI(os.Stdout, os.Stderr).run(args)
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
	// interrupt delivers SIGINT to running programs; tests replace it.
	interrupt func(context.Context) (context.Context, context.CancelFunc)
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout: stdout,
		stderr: stderr,
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

func (c *cli) run(args []string) int {
	if len(args) == 0 {
		c.printUsage()
		return exitFailed
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage()
		return exitCompleted
	case "--version", "-V", "version":
		fmt.Fprintln(c.stdout, cliToolVersion)
		return exitCompleted
	case "run":
		return c.runTarget(args[1:])
	case "check":
		return c.checkTargets(args[1:])
	default:
		return c.runTarget(args)
	}
}

func (c *cli) printUsage() {
	fmt.Fprintf(c.stderr, `usage:
  snaprun run [flags] <program.json | manifest | dir>
  snaprun check [flags] <dir>...
  snaprun version

run flags:
  --timeout duration   stop the program after this long
  --transcript path    write a CBOR transcript of the run
  --max-depth n        call depth limit
  --quiet              do not print statement values
  --debug              verbose logging
  --no-color           plain log output
`)
}

type runFlags struct {
	timeout    time.Duration
	transcript string
	maxDepth   int
	quiet      bool
	debug      bool
	noColor    bool
}

func (c *cli) parseFlags(name string, args []string) (*runFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var f runFlags
	fs.DurationVar(&f.timeout, "timeout", 0, "stop the program after this long")
	fs.StringVar(&f.transcript, "transcript", "", "write a CBOR transcript of the run")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "call depth limit")
	fs.BoolVar(&f.quiet, "quiet", false, "do not print statement values")
	fs.BoolVar(&f.debug, "debug", false, "verbose logging")
	fs.BoolVar(&f.noColor, "no-color", false, "plain log output")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &f, fs.Args(), nil
}

func (c *cli) runTarget(args []string) int {
	flags, rest, err := c.parseFlags("run", args)
	if err != nil {
		return exitFailed
	}
	if len(rest) != 1 {
		fmt.Fprintln(c.stderr, "snaprun run requires exactly one program, manifest or directory")
		return exitFailed
	}

	target, err := driver.OpenTarget(rest[0])
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to open %s: %v\n", rest[0], err)
		return exitFailed
	}
	if m := target.Manifest; m != nil {
		flags.debug = flags.debug || m.Log.Debug
		flags.noColor = flags.noColor || m.Log.NoColor
		if flags.timeout == 0 {
			flags.timeout = m.Timeout
		}
		if flags.transcript == "" {
			flags.transcript = m.Transcript
		}
	}
	logger.InitWriter(c.stderr, flags.debug, flags.noColor)

	prog, err := target.LoadProgram()
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailed
	}
	session, err := driver.NewSession(target.Name, prog, driver.WithEcho(c.stdout), driver.WithCallDepth(flags.maxDepth))
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailed
	}

	report, err := c.supervise(context.Background(), session, flags.timeout)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailed
	}
	if !flags.quiet {
		for _, ev := range report.Events {
			if ev.HasValue {
				fmt.Fprintf(c.stdout, "[%d] %s\n", ev.Index, ev.Value)
			}
		}
		if report.ResultText != "" {
			fmt.Fprintf(c.stdout, "=> %s\n", report.ResultText)
		}
	}
	if flags.transcript != "" {
		if err := driver.WriteTranscript(flags.transcript, driver.NewTranscript(report)); err != nil {
			fmt.Fprintf(c.stderr, "%v\n", err)
			return exitFailed
		}
	}
	return c.reportOutcome(report)
}

// supervise runs the session on a worker goroutine while a watchdog stops it
// when the timeout expires or the user interrupts. The worker's context is
// never cancelled, so the watchdog is the only path to Stop.
func (c *cli) supervise(parent context.Context, session *driver.Session, timeout time.Duration) (*driver.Report, error) {
	ctx, stopSignals := c.interrupt(parent)
	defer stopSignals()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runCtx, finished := context.WithCancel(ctx)
	defer finished()
	g, gctx := errgroup.WithContext(runCtx)
	var report *driver.Report
	g.Go(func() error {
		defer finished()
		report = session.Run(context.WithoutCancel(ctx))
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := ctx.Err(); err != nil {
			log.Warn("stopping program", "program", session.Name, "reason", context.Cause(ctx))
			session.Stop()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("run produced no report")
	}
	return report, nil
}

func (c *cli) reportOutcome(report *driver.Report) int {
	switch report.Result.Outcome {
	case interpreter.OutcomeCompleted:
		return exitCompleted
	case interpreter.OutcomeStopped:
		fmt.Fprintf(c.stderr, "%s: stopped after %s\n", report.Name, report.Result.Duration.Round(time.Millisecond))
		return exitStopped
	default:
		fmt.Fprintf(c.stderr, "%s: %v\n", report.Name, report.Result.Err)
		return exitFailed
	}
}

func (c *cli) checkTargets(args []string) int {
	flags, rest, err := c.parseFlags("check", args)
	if err != nil {
		return exitFailed
	}
	if len(rest) == 0 {
		fmt.Fprintln(c.stderr, "snaprun check requires at least one directory")
		return exitFailed
	}
	logger.InitWriter(c.stderr, flags.debug, flags.noColor)

	var targets []*driver.Target
	for _, arg := range rest {
		found, err := collectTargets(arg)
		if err != nil {
			fmt.Fprintf(c.stderr, "failed to read %s: %v\n", arg, err)
			return exitFailed
		}
		targets = append(targets, found...)
	}
	if len(targets) == 0 {
		fmt.Fprintln(c.stderr, "no snaprun manifests found")
		return exitFailed
	}

	failures := 0
	for _, target := range targets {
		if !c.checkTarget(target, flags) {
			failures++
		}
	}
	fmt.Fprintf(c.stdout, "%d passed, %d failed\n", len(targets)-failures, failures)
	if failures > 0 {
		return exitFailed
	}
	return exitCompleted
}

func (c *cli) checkTarget(target *driver.Target, flags *runFlags) bool {
	expect := target.Manifest.Expect
	if expect == nil {
		expect = &driver.Expectation{Outcome: interpreter.OutcomeCompleted.String()}
	}
	var opts []driver.SessionOption
	if flags.maxDepth > 0 {
		opts = append(opts, driver.WithCallDepth(flags.maxDepth))
	}
	ctx := context.Background()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}
	report, err := driver.Execute(ctx, target, opts...)
	if err != nil {
		fmt.Fprintf(c.stdout, "FAIL %s: %v\n", target.Name, err)
		return false
	}
	issues := report.Check(expect)
	if len(issues) == 0 {
		fmt.Fprintf(c.stdout, "PASS %s\n", target.Name)
		return true
	}
	fmt.Fprintf(c.stdout, "FAIL %s\n", target.Name)
	for _, issue := range issues {
		fmt.Fprintf(c.stdout, "  %s\n", issue)
	}
	return false
}

// collectTargets returns dir itself when it holds a manifest, otherwise each
// immediate subdirectory that does, in name order.
func collectTargets(dir string) ([]*driver.Target, error) {
	if _, err := driver.FindManifest(dir); err == nil {
		target, err := driver.OpenTarget(dir)
		if err != nil {
			return nil, err
		}
		return []*driver.Target{target}, nil
	} else if !errors.Is(err, driver.ErrNoManifest) {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	var targets []*driver.Target
	for _, name := range names {
		sub := filepath.Join(dir, name)
		if _, err := driver.FindManifest(sub); err != nil {
			continue
		}
		target, err := driver.OpenTarget(sub)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}
