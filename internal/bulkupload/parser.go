package bulkupload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retailgrid/backoffice/pkg/config"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

// parsed is the tokenized upload: candidate rows plus the lines that failed
// structural tokenization. Only header, size, row count, and extension
// problems abort an upload; everything else becomes a report entry.
type parsed struct {
	header    []string
	rows      []Row
	malformed []Malformed
}

// parseTSV tokenizes a tab-separated upload against the expected header.
// Candidate rows keep their original line numbers so the report can preserve
// file order.
func parseTSV(filename string, content []byte, columns []string, limits config.UploadConfig) (*parsed, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != limits.Extension {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
			"unsupported file type %q, expected %s", ext, limits.Extension)
	}
	if limits.MaxBytes > 0 && int64(len(content)) > limits.MaxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
			"file exceeds the %d byte limit", limits.MaxBytes)
	}
	if len(content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	header := splitCells(lines[0])
	if err := checkHeader(header, columns); err != nil {
		return nil, err
	}

	out := &parsed{header: header}
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 2
		cells := splitCells(line)
		if len(cells) != len(columns) {
			out.malformed = append(out.malformed, Malformed{
				Line:   lineNo,
				Raw:    line,
				Reason: fmt.Sprintf("expected %d columns, found %d", len(columns), len(cells)),
			})
			continue
		}
		out.rows = append(out.rows, Row{Line: lineNo, Cells: cells})
	}

	if limits.MaxRows > 0 && len(out.rows)+len(out.malformed) > limits.MaxRows {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation,
			"file exceeds the %d row limit", limits.MaxRows)
	}
	return out, nil
}

func splitCells(line string) []string {
	cells := strings.Split(line, "\t")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func checkHeader(header, columns []string) error {
	if len(header) != len(columns) {
		return pkgerrors.Newf(pkgerrors.CodeValidation,
			"bad header: expected columns %s", strings.Join(columns, ", "))
	}
	for i, col := range columns {
		if !strings.EqualFold(header[i], col) {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"bad header: expected columns %s", strings.Join(columns, ", "))
		}
	}
	return nil
}
