// Package dataset turns incident exports (CSV/TSV/TXT or XLSX) into headers and
// rows keyed by header name.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Row maps a header to its raw cell text. A missing key reads as an empty cell.
type Row map[string]string

// Dataset is one loaded table. Headers and Rows keep file order.
type Dataset struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Column returns the raw values of one column in row order.
func (d *Dataset) Column(name string) []string {
	out := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, r[name])
	}
	return out
}

// Options tunes loading.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the header among ',', ';', '\t'.
	Delimiter rune
	// SheetName selects a worksheet by name (case-insensitive).
	SheetName string
	// SheetIndex is 1-based; used when SheetName is empty. 0 means the first sheet.
	SheetIndex int
}

// Loader reads one family of file formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Dataset, error)
}

var registry []Loader

// Register adds a loader. Earlier registrations win.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Load picks a loader by file extension and reads path.
func Load(path string, opt Options) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Op: "stat", Path: path, Err: err}
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, &LoadError{Op: "load", Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))}
}

// ParseDelimiter accepts "," ";" "tab" "\t" "|" style flag values. Empty means auto.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	if uq, err := strconv.Unquote(`"` + s + `"`); err == nil && len([]rune(uq)) == 1 {
		return []rune(uq)[0], nil
	}
	return 0, fmt.Errorf("invalid delimiter %q: want a single character", s)
}

// build assembles a Dataset from a raw header and records: blank header cells get
// a positional name, duplicates get _1, _2 suffixes, records are padded or
// truncated to the header width and all-blank records are dropped.
func build(name string, header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}
	headers := uniqueHeaders(header)
	ds := &Dataset{Name: name, Headers: headers}
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	if len(ds.Rows) == 0 {
		return ds, ErrNoData
	}
	return ds, nil
}

func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	taken := make(map[string]bool, len(raw))
	for _, h := range raw {
		taken[strings.TrimSpace(h)] = true
	}
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("columna_%d", i+1)
		}
		base := h
		if n, dup := seen[base]; dup {
			for {
				n++
				h = fmt.Sprintf("%s_%d", base, n)
				if !taken[h] {
					break
				}
			}
			seen[base] = n
			taken[h] = true
		} else {
			seen[base] = 0
		}
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
