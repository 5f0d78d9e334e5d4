package driver

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// TranscriptVersion is bumped whenever the encoded layout changes.
const TranscriptVersion = 1

// Transcript is the persisted record of one run.
type Transcript struct {
	Version    int               `cbor:"1,keyasint"`
	RunID      uuid.UUID         `cbor:"2,keyasint"`
	Program    string            `cbor:"3,keyasint"`
	Outcome    string            `cbor:"4,keyasint"`
	Error      string            `cbor:"5,keyasint,omitempty"`
	Result     string            `cbor:"6,keyasint,omitempty"`
	Console    []string          `cbor:"7,keyasint,omitempty"`
	Events     []TranscriptEvent `cbor:"8,keyasint,omitempty"`
	DurationNS int64             `cbor:"9,keyasint"`
	RecordedAt time.Time         `cbor:"10,keyasint"`
}

type TranscriptEvent struct {
	Index     int    `cbor:"1,keyasint"`
	Statement string `cbor:"2,keyasint"`
	Value     string `cbor:"3,keyasint,omitempty"`
	HasValue  bool   `cbor:"4,keyasint,omitempty"`
}

var transcriptEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("driver: failed to create CBOR enc mode: %v", err))
	}
	transcriptEncMode = em
}

// NewTranscript captures a report.
func NewTranscript(r *Report) *Transcript {
	t := &Transcript{
		Version:    TranscriptVersion,
		RunID:      r.Result.ID,
		Program:    r.Name,
		Outcome:    r.Result.Outcome.String(),
		Result:     r.ResultText,
		Console:    r.ConsoleLines(),
		DurationNS: r.Result.Duration.Nanoseconds(),
		RecordedAt: time.Now().UTC(),
	}
	if r.Result.Err != nil {
		t.Error = r.Result.Err.Error()
	}
	for _, ev := range r.Events {
		t.Events = append(t.Events, TranscriptEvent{
			Index:     ev.Index,
			Statement: ev.Statement,
			Value:     ev.Value,
			HasValue:  ev.HasValue,
		})
	}
	return t
}

// MarshalTranscript serializes a transcript to CBOR bytes.
func MarshalTranscript(t *Transcript) ([]byte, error) {
	return transcriptEncMode.Marshal(t)
}

// UnmarshalTranscript deserializes a transcript from CBOR bytes.
func UnmarshalTranscript(data []byte) (*Transcript, error) {
	var t Transcript
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("driver: unmarshal transcript: %w", err)
	}
	if t.Version != TranscriptVersion {
		return nil, fmt.Errorf("driver: unsupported transcript version %d", t.Version)
	}
	return &t, nil
}

// WriteTranscript encodes t to path.
func WriteTranscript(path string, t *Transcript) error {
	data, err := MarshalTranscript(t)
	if err != nil {
		return fmt.Errorf("driver: marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("driver: write transcript %s: %w", path, err)
	}
	return nil
}

func ReadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read transcript %s: %w", path, err)
	}
	return UnmarshalTranscript(data)
}
