package collector

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// utf8BOM prefixes the tabular report exports some backends return.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// reportRow is one decoded row of a tabular report, keyed by header name.
type reportRow map[string]string

// parseReport decodes a binary tabular (CSV) export into rows keyed by
// header. Tolerates a UTF-8 byte-order mark and ragged trailing fields.
func parseReport(data []byte) []reportRow {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []reportRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(reportRow, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(field)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Int returns a numeric column, treating blanks and junk as zero.
func (r reportRow) Int(column string) int {
	n, err := strconv.Atoi(r[column])
	if err != nil {
		return 0
	}
	return n
}

// Active reports whether the row shows activity in the report window.
func (r reportRow) Active(dateColumn string) bool {
	return r[dateColumn] != ""
}
