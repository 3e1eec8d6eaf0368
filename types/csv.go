package types

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// WriteCSV serializes the data set in the form the ETL file endpoint expects:
// a header row followed by the data rows, every field quoted, quotes and
// backslashes escaped with a backslash (quote doubling is not used), rows
// terminated with "\n". Missing cells render as empty quoted fields.
//
// encoding/csv cannot produce this quoting scheme, so the record writer is
// local to this package.
func (d *DataSet) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeRecord(bw, d.Columns)

	record := make([]string, 0, len(d.Columns))

	for _, row := range d.Rows {
		record = record[:0]

		for _, cell := range row {
			record = append(record, cellString(cell))
		}

		writeRecord(bw, record)
	}

	return bw.Flush()
}

// CSVBytes renders the data set as CSV in memory.
func (d *DataSet) CSVBytes() []byte {
	var buf bytes.Buffer

	// Writes to a bytes.Buffer cannot fail.
	_ = d.WriteCSV(&buf)

	return buf.Bytes()
}

// writeRecord writes one fully quoted record. Errors stick in the
// bufio.Writer and surface at Flush.
func writeRecord(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}

		w.WriteByte('"')

		for j := 0; j < len(field); j++ {
			switch c := field[j]; c {
			case '"', '\\':
				w.WriteByte('\\')
				w.WriteByte(c)
			default:
				w.WriteByte(c)
			}
		}

		w.WriteByte('"')
	}

	w.WriteByte('\n')
}

// cellString coerces a cell to its textual representation. A nil cell is a
// missing value and becomes an empty string, never a null token.
func cellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
