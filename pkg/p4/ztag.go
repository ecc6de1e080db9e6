package p4

import (
	"bufio"
	"io"
	"strings"
)

// Record is one tagged record, keyed by field name.
type Record map[string]string

const (
	tagPrefix     = "... "
	maxRecordLine = 1024 * 1024
)

// recordScanner reads tagged records incrementally. Records are separated by
// blank lines, and each field is a line of the form `... name value`.
// Lines without the prefix continue the value of the previous field.
type recordScanner struct {
	scanner *bufio.Scanner
}

func newRecordScanner(r io.Reader) *recordScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordLine)
	return &recordScanner{scanner: scanner}
}

// Next returns the next record. It returns false once the input is
// exhausted or fails; check Err afterwards.
func (rs *recordScanner) Next() (Record, bool) {
	var rec Record
	var lastKey string
	for rs.scanner.Scan() {
		line := rs.scanner.Text()
		if line == "" {
			if rec != nil {
				return rec, true
			}
			continue
		}

		if !strings.HasPrefix(line, tagPrefix) {
			if rec != nil && lastKey != "" {
				rec[lastKey] += "\n" + line
			}
			continue
		}

		// Nested fields such as `... ... otherOpen0` are flattened.
		for strings.HasPrefix(line, tagPrefix) {
			line = line[len(tagPrefix):]
		}

		key, value := line, ""
		if i := strings.IndexByte(line, ' '); i >= 0 {
			key, value = line[:i], line[i+1:]
		}

		if rec == nil {
			rec = Record{}
		}
		rec[key] = value
		lastKey = key
	}
	return rec, rec != nil
}

// Err returns the first read error, if any.
func (rs *recordScanner) Err() error {
	return rs.scanner.Err()
}
