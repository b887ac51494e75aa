package trajectory

import (
	"strings"

	"github.com/google/uuid"

	"stagectl/pkg/errors"
)

// Upload accumulates a streamed trajectory into a staging buffer and
// commits it wholesale on End. Input may arrive one value per line or
// as comma-separated batches; either way each value becomes one staged
// line.
type Upload struct {
	open    bool
	token   string
	lines   int
	staging strings.Builder
}

// NewUpload returns a closed upload pipeline.
func NewUpload() *Upload {
	return &Upload{}
}

// Open reports whether an upload session is in progress.
func (u *Upload) Open() bool {
	return u.open
}

// Token returns the current session token, empty when closed.
func (u *Upload) Token() string {
	if !u.open {
		return ""
	}
	return u.token
}

// Lines returns the number of staged lines.
func (u *Upload) Lines() int {
	return u.lines
}

// Begin opens a session, discarding any staged content from a previous
// one, and returns the new session token.
func (u *Upload) Begin() string {
	u.open = true
	u.token = uuid.NewString()
	u.lines = 0
	u.staging.Reset()
	return u.token
}

// Accept stages one inbound line. A comma-separated line is split into
// one staged line per value, left to right, including a trailing
// fragment with no terminating comma. Any other line is staged
// verbatim as one sample. Returns the staged line count.
func (u *Upload) Accept(line string) (int, error) {
	if !u.open {
		return u.lines, errors.New(errors.ErrUploadClosed, "no upload in progress")
	}

	if strings.Contains(line, ",") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			u.stage(part)
		}
	} else {
		u.stage(line)
	}
	return u.lines, nil
}

func (u *Upload) stage(line string) {
	u.staging.WriteString(line)
	u.staging.WriteByte('\n')
	u.lines++
}

// End closes the session, parses the staged buffer into displacement
// values, and commits them to store and file. Parsing is lenient: a
// bad line becomes 0.0 and still counts. Staged input beyond Capacity
// is dropped without error. Returns the committed sample count.
func (u *Upload) End(store *Store, file *FileStore) (int, error) {
	if !u.open {
		return 0, errors.New(errors.ErrUploadState, "no upload in progress")
	}
	u.open = false

	samples := make([]float64, 0, Capacity)
	for _, line := range strings.Split(u.staging.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(samples) >= Capacity {
			break
		}
		samples = append(samples, parseLenient(line))
	}
	u.staging.Reset()
	u.lines = 0

	store.SetSamples(samples)
	if file != nil {
		if err := file.Save(samples); err != nil {
			return len(samples), err
		}
	}
	return len(samples), nil
}

// Discard closes the session without committing.
func (u *Upload) Discard() {
	u.open = false
	u.lines = 0
	u.staging.Reset()
}
