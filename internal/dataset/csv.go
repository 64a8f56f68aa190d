package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (csvLoader) Load(path string, opt Options) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Op: "read csv", Path: path, Err: err}
	}
	b, err = decodeText(b)
	if err != nil {
		return nil, &LoadError{Op: "decode csv", Path: path, Err: err}
	}
	ds, err := parseDelimited(b, filepath.Base(path), opt.Delimiter)
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &LoadError{Op: "parse csv", Path: path, Line: pe.Line, Err: pe.Err}
		}
		return ds, &LoadError{Op: "parse csv", Path: path, Err: err}
	}
	return ds, nil
}

// decodeText strips a UTF-8 BOM and reads anything that is not valid UTF-8 as
// Windows-1252, the usual encoding of spreadsheet exports on Spanish Windows.
func decodeText(b []byte) ([]byte, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return b, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("windows-1252: %w", err)
	}
	return out, nil
}

func parseDelimited(b []byte, name string, delim rune) (*Dataset, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmptyFile
	}
	if delim == 0 {
		delim = sniffDelimiter(b)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	// csv trims whitespace delimiters too, which would swallow empty cells.
	r.TrimLeadingSpace = !unicode.IsSpace(delim)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, err
	}
	header = append([]string(nil), header...)
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return build(name, header, records)
}

// sniffDelimiter counts candidate separators on the first line outside quotes.
// Comma wins ties and the no-separator case.
func sniffDelimiter(b []byte) rune {
	line := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		line = b[:i]
	}
	counts := map[rune]int{}
	inQuote := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == ',' || c == ';' || c == '\t':
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
