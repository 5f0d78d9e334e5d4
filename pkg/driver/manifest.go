package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ManifestNames lists the manifest file names FindManifest looks for, in order.
var ManifestNames = []string{"snaprun.yml", "snaprun.yaml", "snaprun.toml"}

// DefaultEntry is the program file used when a manifest names none.
const DefaultEntry = "program.json"

// ErrNoManifest is returned by FindManifest when a directory has no manifest.
var ErrNoManifest = errors.New("manifest: no snaprun manifest found")

// Manifest represents a parsed snaprun.yml or snaprun.toml.
type Manifest struct {
	Path string
	// Dir is the directory containing the manifest; Entry and Transcript
	// are resolved against it.
	Dir        string
	Name       string
	Entry      string
	Timeout    time.Duration
	Log        LogConfig
	Transcript string
	Expect     *Expectation
}

type LogConfig struct {
	Debug   bool
	NoColor bool
}

// Expectation is what `snaprun check` compares a run against. Nil fields
// are not checked.
type Expectation struct {
	Outcome string
	Stdout  *string
	Result  *string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// FindManifest returns the path of the manifest in dir.
func FindManifest(dir string) (string, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("manifest: stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoManifest, dir)
}

// LoadManifest parses a snaprun manifest from disk, returning a validated
// manifest. The format follows the file extension.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}

	var raw manifestFile
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".toml":
		if err := raw.decodeTOML(absPath); err != nil {
			return nil, err
		}
	case ".yml", ".yaml":
		if err := raw.decodeYAML(absPath); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("manifest: unsupported format %s", filepath.Base(absPath))
	}

	manifest, err := raw.toManifest(absPath)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

type manifestFile struct {
	Name       string      `yaml:"name" toml:"name"`
	Entry      string      `yaml:"entry" toml:"entry"`
	Timeout    string      `yaml:"timeout" toml:"timeout"`
	Log        logFile     `yaml:"log" toml:"log"`
	Transcript string      `yaml:"transcript" toml:"transcript"`
	Expect     *expectFile `yaml:"expect" toml:"expect"`
}

type logFile struct {
	Debug   bool `yaml:"debug" toml:"debug"`
	NoColor bool `yaml:"no_color" toml:"no_color"`
}

type expectFile struct {
	Outcome string  `yaml:"outcome" toml:"outcome"`
	Stdout  *string `yaml:"stdout" toml:"stdout"`
	Result  *string `yaml:"result" toml:"result"`
}

func (mf *manifestFile) decodeYAML(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(mf); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("manifest: %s is empty", path)
		}
		return fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return nil
}

func (mf *manifestFile) decodeTOML(path string) error {
	meta, err := toml.DecodeFile(path, mf)
	if err != nil {
		return fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("manifest: parse %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (mf manifestFile) toManifest(path string) (*Manifest, error) {
	dir := filepath.Dir(path)
	m := &Manifest{
		Path:       path,
		Dir:        dir,
		Name:       strings.TrimSpace(mf.Name),
		Entry:      strings.TrimSpace(mf.Entry),
		Log:        LogConfig{Debug: mf.Log.Debug, NoColor: mf.Log.NoColor},
		Transcript: strings.TrimSpace(mf.Transcript),
	}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	if m.Entry == "" {
		m.Entry = DefaultEntry
	}

	var errs ValidationError
	if filepath.IsAbs(m.Entry) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must be relative to the manifest", m.Entry))
	}
	m.Entry = filepath.Join(dir, m.Entry)
	if m.Transcript != "" && !filepath.IsAbs(m.Transcript) {
		m.Transcript = filepath.Join(dir, m.Transcript)
	}
	if timeout := strings.TrimSpace(mf.Timeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		switch {
		case err != nil:
			errs.Issues = append(errs.Issues, fmt.Sprintf("timeout %q is not a duration", timeout))
		case d < 0:
			errs.Issues = append(errs.Issues, fmt.Sprintf("timeout %q must not be negative", timeout))
		default:
			m.Timeout = d
		}
	}
	if mf.Expect != nil {
		expect := &Expectation{
			Outcome: strings.ToLower(strings.TrimSpace(mf.Expect.Outcome)),
			Stdout:  mf.Expect.Stdout,
			Result:  mf.Expect.Result,
		}
		if expect.Outcome == "" {
			expect.Outcome = "completed"
		}
		switch expect.Outcome {
		case "completed", "stopped", "failed":
		default:
			errs.Issues = append(errs.Issues, fmt.Sprintf("expect.outcome %q must be completed, stopped or failed", mf.Expect.Outcome))
		}
		m.Expect = expect
	}

	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	return m, nil
}
