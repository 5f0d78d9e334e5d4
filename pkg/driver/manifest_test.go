package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snaprun.yml", `
name: totals
entry: progs/main.json
timeout: 250ms
log:
  debug: true
  no_color: true
transcript: out/run.cbor
expect:
  outcome: Failed
  stdout: "hi\n"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "totals" || m.Timeout != 250*time.Millisecond {
		t.Fatalf("expected totals with 250ms timeout, got %q %v", m.Name, m.Timeout)
	}
	if m.Entry != filepath.Join(dir, "progs", "main.json") {
		t.Fatalf("expected entry resolved against the manifest, got %s", m.Entry)
	}
	if m.Transcript != filepath.Join(dir, "out", "run.cbor") {
		t.Fatalf("expected transcript resolved against the manifest, got %s", m.Transcript)
	}
	if !m.Log.Debug || !m.Log.NoColor {
		t.Fatalf("expected log flags, got %#v", m.Log)
	}
	if m.Expect == nil || m.Expect.Outcome != "failed" || m.Expect.Stdout == nil || *m.Expect.Stdout != "hi\n" {
		t.Fatalf("expected failed outcome with stdout, got %#v", m.Expect)
	}
	if m.Expect.Result != nil {
		t.Fatalf("expected result unchecked, got %q", *m.Expect.Result)
	}
}

func TestLoadManifestTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snaprun.toml", `
timeout = "2s"

[expect]
result = "42"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != filepath.Base(dir) {
		t.Fatalf("expected the directory name, got %q", m.Name)
	}
	if m.Entry != filepath.Join(dir, DefaultEntry) {
		t.Fatalf("expected default entry, got %s", m.Entry)
	}
	if m.Timeout != 2*time.Second {
		t.Fatalf("expected 2s, got %v", m.Timeout)
	}
	if m.Expect == nil || m.Expect.Outcome != "completed" || m.Expect.Result == nil || *m.Expect.Result != "42" {
		t.Fatalf("expected completed with result 42, got %#v", m.Expect)
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	yml := writeFile(t, dir, "snaprun.yml", "name: x\nentrypoint: main.json\n")
	if _, err := LoadManifest(yml); err == nil || !strings.Contains(err.Error(), "entrypoint") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	toml := writeFile(t, dir, "snaprun.toml", "name = \"x\"\n[expect]\nexit = 1\n")
	if _, err := LoadManifest(toml); err == nil || !strings.Contains(err.Error(), "expect.exit") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snaprun.yml", `
timeout: soon
expect:
  outcome: crashed
`)
	_, err := LoadManifest(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", verr.Issues)
	}
	if !strings.HasPrefix(err.Error(), "manifest validation failed:\n- ") {
		t.Fatalf("expected issue list, got %q", err.Error())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "snaprun.yml", "")
	if _, err := LoadManifest(empty); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty manifest error, got %v", err)
	}
	if _, err := LoadManifest(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	other := writeFile(t, dir, "snaprun.json", "{}")
	if _, err := LoadManifest(other); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if _, err := LoadManifest(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindManifest(dir); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
	writeFile(t, dir, "snaprun.toml", "")
	yml := writeFile(t, dir, "snaprun.yml", "name: first\n")
	path, err := FindManifest(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != yml {
		t.Fatalf("expected %s to win, got %s", yml, path)
	}
}
