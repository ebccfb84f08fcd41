package shell

import (
	"io"
	"strings"
)

// ReadLine reads up to and including a newline, but never more than limit
// bytes; the rest of a long line is returned by the next call. A final line
// without a newline is returned along with io.EOF.
func ReadLine(r io.ByteReader, limit int) (string, error) {
	var line strings.Builder
	for line.Len() < limit {
		c, err := r.ReadByte()
		if err != nil {
			return line.String(), err
		}
		line.WriteByte(c)
		if c == '\n' {
			break
		}
	}
	return line.String(), nil
}
