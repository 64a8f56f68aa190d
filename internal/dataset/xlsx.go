package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func (xlsxLoader) Load(path string, opt Options) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Op: "open xlsx", Path: path, Err: err}
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return nil, &LoadError{Op: "open xlsx", Path: path, Err: err}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Op: "read sheet", Path: path, Err: fmt.Errorf("%s: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Op: "read sheet", Path: path, Err: ErrEmptyFile}
	}
	ds, err := build(filepath.Base(path), rows[0], rows[1:])
	if err != nil {
		return ds, &LoadError{Op: "read sheet", Path: path, Err: err}
	}
	return ds, nil
}

func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", ErrSheetNotFound
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, opt.SheetName, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("%w: index %d of %d", ErrSheetNotFound, idx, len(sheets))
	}
	return sheets[idx-1], nil
}
