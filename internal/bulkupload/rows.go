package bulkupload

// Row is one tokenized candidate line from an upload, pre-validation.
type Row struct {
	// Line is the 1-based line number in the original file, header included.
	Line  int
	Cells []string
}

// Malformed is a line that never became a candidate row: wrong column count
// or otherwise untokenizable. It only appears in the trailing report block.
type Malformed struct {
	Line   int
	Raw    string
	Reason string
}

// RowResult pairs a candidate row with its outcome. An empty Err means the
// row committed.
type RowResult struct {
	Row Row
	Err string
}

// OK reports whether the row committed.
func (r RowResult) OK() bool {
	return r.Err == ""
}
