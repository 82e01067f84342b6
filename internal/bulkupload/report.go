package bulkupload

import (
	"bytes"
	"strings"
)

// StatusSuccess marks a committed row in the rendered report.
const StatusSuccess = "SUCCESS"

// MalformedMarker separates candidate rows from the lines that never parsed.
const MalformedMarker = "# lines that could not be parsed"

// Report is the sole visible outcome of an upload: one entry per candidate
// row in original file order, then the structurally-malformed lines.
type Report struct {
	Header    []string
	Results   []RowResult
	Malformed []Malformed
}

// Committed counts the rows that were written.
func (r *Report) Committed() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Render serializes the report as a tab-delimited byte stream: header with a
// trailing status column, the candidate rows with SUCCESS or their error, and
// the malformed block behind a marker line.
func (r *Report) Render() []byte {
	var buf bytes.Buffer

	buf.WriteString(strings.Join(r.Header, "\t"))
	buf.WriteString("\tstatus\n")

	for _, res := range r.Results {
		buf.WriteString(strings.Join(res.Row.Cells, "\t"))
		buf.WriteByte('\t')
		if res.OK() {
			buf.WriteString(StatusSuccess)
		} else {
			buf.WriteString(res.Err)
		}
		buf.WriteByte('\n')
	}

	if len(r.Malformed) > 0 {
		buf.WriteString(MalformedMarker)
		buf.WriteByte('\n')
		for _, m := range r.Malformed {
			buf.WriteString(m.Raw)
			buf.WriteByte('\t')
			buf.WriteString(m.Reason)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
