package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"snapcode/interpreter-go/pkg/ast"
	"snapcode/interpreter-go/pkg/interpreter"
)

func fixturesRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", "..", "fixtures"))
	if err != nil {
		t.Fatalf("resolve fixtures: %v", err)
	}
	return root
}

func TestFixtures(t *testing.T) {
	root := fixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read fixtures: %v", err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		t.Fatalf("expected fixtures under %s", root)
	}
	for _, name := range dirs {
		t.Run(name, func(t *testing.T) {
			target, err := OpenTarget(filepath.Join(root, name))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if target.Manifest == nil || target.Manifest.Expect == nil {
				t.Fatalf("fixture %s has no expect block", name)
			}
			report, err := Execute(testContext(t), target)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			for _, issue := range report.Check(target.Manifest.Expect) {
				t.Errorf("%s: %s", name, issue)
			}
		})
	}
}

func TestOpenTargetForms(t *testing.T) {
	root := fixturesRoot(t)
	byFile, err := OpenTarget(filepath.Join(root, "sum_of_squares", "program.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byFile.Manifest != nil || byFile.Name != "program" {
		t.Fatalf("expected a bare program target, got %#v", byFile)
	}
	byManifest, err := OpenTarget(filepath.Join(root, "static_main", "snaprun.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byManifest.Name != "static-main" || byManifest.ProgramPath != filepath.Join(root, "static_main", "program.json") {
		t.Fatalf("expected the manifest entry, got %#v", byManifest)
	}
	if _, err := OpenTarget(filepath.Join(root, "missing")); err == nil {
		t.Fatalf("expected error for a missing target")
	}
	if _, err := OpenTarget(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no snaprun manifest") {
		t.Fatalf("expected missing manifest error, got %v", err)
	}
}

func TestSessionRecordsEventsAndEchoes(t *testing.T) {
	prog := ast.NewProgram(nil, ast.NewBlock([]ast.Statement{
		ast.NewVarDeclStatement(ast.NewVarDecl("n", ast.NewTypeRef("int"), ast.NewIntegerLiteral(4, false))),
		ast.NewExpressionStatement(ast.NewBinaryExpression("*", ast.NewIdentifier("n"), ast.NewIntegerLiteral(2, false))),
		ast.NewExpressionStatement(ast.NewDotExpression(
			ast.NewDotExpression(ast.NewIdentifier("System"), ast.NewIdentifier("out")),
			ast.NewMethodCall("print", []ast.Expression{ast.NewStringLiteral("ok")}),
		)),
	}))
	var echo bytes.Buffer
	session, err := NewSession("events", prog, WithEcho(&echo))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := session.Run(testContext(t))
	if report.Result.Outcome != interpreter.OutcomeCompleted {
		t.Fatalf("expected completed, got %s: %v", report.Result.Outcome, report.Result.Err)
	}
	if len(report.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(report.Events))
	}
	if ev := report.Events[1]; !ev.HasValue || ev.Value != "8" || ev.Statement != "ExpressionStatement" {
		t.Fatalf("expected n * 2 = 8, got %#v", ev)
	}
	if report.Stdout != "ok" || echo.String() != "ok" {
		t.Fatalf("expected captured and echoed output, got %q and %q", report.Stdout, echo.String())
	}
	if report.ResultText != "" {
		t.Fatalf("expected no result, got %q", report.ResultText)
	}

	again := session.Run(testContext(t))
	if again.Stdout != "ok" || again.Result.ID == report.Result.ID {
		t.Fatalf("expected a fresh run with its own output, got %q", again.Stdout)
	}
}

func TestSessionCallDepth(t *testing.T) {
	recurse := ast.NewMethodDecl("down", nil, ast.NewTypeRef("int"), ast.NewBlock([]ast.Statement{
		ast.NewReturnStatement(ast.NewMethodCall("down", nil)),
	}), true)
	prog := ast.NewProgram(ast.NewClassDecl("Deep", nil, []*ast.MethodDecl{recurse}), ast.NewBlock([]ast.Statement{
		ast.NewReturnStatement(ast.NewMethodCall("down", nil)),
	}))
	session, err := NewSession("deep", prog, WithCallDepth(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := session.Run(testContext(t))
	if !interpreter.IsKind(report.Result.Err, interpreter.ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %s: %v", report.Result.Outcome, report.Result.Err)
	}
	issues := report.Check(&Expectation{Outcome: "completed"})
	if len(issues) != 1 || !strings.Contains(issues[0], "expected outcome completed, got failed") {
		t.Fatalf("expected an outcome mismatch, got %v", issues)
	}
}
