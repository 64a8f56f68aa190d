package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile means the source had no header row at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoData means a header was found but no non-blank data rows.
	ErrNoData = errors.New("no data rows")

	// ErrUnsupportedFormat is returned when no loader accepts the file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSheetNotFound is returned when a requested worksheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// LoadError wraps a loader failure with the file and, when known, the line.
type LoadError struct {
	Op   string
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", e.Op, e.Path, e.Line, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
