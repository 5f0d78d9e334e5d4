package interpreter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/runtime"
)

// DefaultMaxCallDepth bounds nested interpreted calls.
const DefaultMaxCallDepth = 2000

// Interpreter executes resolved trees. It is not safe for concurrent runs;
// only Stop may be called from another goroutine.
type Interpreter struct {
	host  Host
	stack *runtime.Stack
	stop  atomic.Bool

	maxDepth int
	depth    int

	// layouts records bodies whose slots are assigned.
	layouts map[ast.Node]bool
	// freeLocals caches the enclosing locals each lambda body reads.
	freeLocals map[*ast.LambdaExpression][]*ast.LocalVar
	// initialized tracks program classes whose statics are set for this run.
	initialized map[*ast.Class]bool
}

type Option func(*Interpreter)

// WithMaxCallDepth overrides DefaultMaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(i *Interpreter) {
		if depth > 0 {
			i.maxDepth = depth
		}
	}
}

// New returns an interpreter bound to host.
func New(host Host, opts ...Option) *Interpreter {
	i := &Interpreter{
		host:        host,
		stack:       runtime.NewStack(),
		maxDepth:    DefaultMaxCallDepth,
		layouts:     make(map[ast.Node]bool),
		freeLocals:  make(map[*ast.LambdaExpression][]*ast.LocalVar),
		initialized: make(map[*ast.Class]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Host returns the resolution layer the interpreter calls into.
func (i *Interpreter) Host() Host { return i.host }

// Stack exposes the value stack, mainly for inspection in tests.
func (i *Interpreter) Stack() *runtime.Stack { return i.stack }

// Stop asks the current run to halt at the next loop boundary. It is safe to
// call from any goroutine and any number of times.
func (i *Interpreter) Stop() { i.stop.Store(true) }

// StopRequested reports whether a Stop is pending for the current or next run.
func (i *Interpreter) StopRequested() bool { return i.stop.Load() }

type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeStopped:
		return "stopped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Event reports the value one top-level statement produced. Value is nil for
// statements that produce nothing.
type Event struct {
	Index     int
	Statement ast.Statement
	Value     runtime.Value
}

type EventSink func(Event)

// RunResult describes one top-level run. Value is what a top-level return
// produced, nil when the statements ran to the end.
type RunResult struct {
	ID       uuid.UUID
	Outcome  Outcome
	Value    runtime.Value
	Err      error
	Duration time.Duration
}

// Run executes body as one top-level run against receiver this. The stack is
// fresh for the run and reset afterwards, whatever the outcome. Cancelling
// ctx behaves like Stop. A Stop requested before Run starts halts the run
// before its first statement; the request is cleared when the run ends.
func (i *Interpreter) Run(ctx context.Context, body *ast.Block, this runtime.Value, sink EventSink) (result RunResult) {
	result = RunResult{ID: uuid.New()}
	start := time.Now()
	i.stack.Reset()
	i.depth = 0

	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			i.Stop()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-watched
		i.stop.Store(false)
		i.stack.Reset()
		result.Duration = time.Since(start)
		log.Debug("run finished", "id", result.ID, "outcome", result.Outcome, "duration", result.Duration)
	}()
	if this == nil {
		this = runtime.NullValue{}
	}

	log.Debug("run started", "id", result.ID, "statements", len(body.Statements))
	i.ensureLayout(body)
	value, err := i.runStatements(body, this, sink)
	switch {
	case err == nil:
		result.Outcome = OutcomeCompleted
		result.Value = value
	case isStop(err):
		result.Outcome = OutcomeStopped
	default:
		result.Outcome = OutcomeFailed
		result.Err = err
	}
	return result
}

func (i *Interpreter) runStatements(body *ast.Block, this runtime.Value, sink EventSink) (value runtime.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &RuntimeError{Kind: ErrHost, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	for idx, stmt := range body.Statements {
		if i.stop.Load() {
			return nil, stopSignal{}
		}
		val, err := i.execStatement(this, stmt)
		if err != nil {
			switch sig := err.(type) {
			case returnSignal:
				return sig.value, nil
			case breakSignal, continueSignal:
				return nil, typeError(stmt, "%s outside of a loop", sig.Error())
			}
			return nil, err
		}
		if sink != nil {
			sink(Event{Index: idx, Statement: stmt, Value: val})
		}
	}
	return nil, nil
}

// RunProgram creates the program's receiver, initializes its class and runs
// the program body.
func (i *Interpreter) RunProgram(ctx context.Context, prog *ast.Program, sink EventSink) RunResult {
	clear(i.initialized)
	var this runtime.Value = runtime.NullValue{}
	if prog.Class != nil && prog.Class.Class != nil {
		i.stack.Reset()
		obj, err := i.instantiate(prog, prog.Class.Class, nil, nil)
		if err != nil {
			i.stop.Store(false)
			return RunResult{ID: uuid.New(), Outcome: OutcomeFailed, Err: err}
		}
		this = obj
	}
	body := prog.Body
	if body == nil {
		body = ast.NewBlock(nil)
	}
	return i.Run(ctx, body, this, sink)
}

// Evaluate evaluates a single expression against receiver this, outside of
// any run.
func (i *Interpreter) Evaluate(this runtime.Value, expr ast.Expression) (runtime.Value, error) {
	if this == nil {
		this = runtime.NullValue{}
	}
	i.ensureLayout(expr)
	return i.evalExpr(this, expr)
}

// Invoke calls method with an already evaluated receiver and arguments,
// running interpreted bodies and delegating everything else to the host.
func (i *Interpreter) Invoke(method *ast.Method, receiver runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return i.invoke(nil, method, receiver, args)
}
