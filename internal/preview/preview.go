// Package preview renders the opening lines of text documents held in
// media handles.
package preview

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxLineBytes = 1024 * 1024

// Lines returns at most maxLines lines from r and whether more followed.
// Trailing carriage returns and tabs are normalised for terminal display.
func Lines(r io.Reader, maxLines int) ([]string, bool, error) {
	if maxLines <= 0 || r == nil {
		return nil, false, nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make([]string, 0, maxLines)
	for scanner.Scan() {
		if len(lines) == maxLines {
			return lines, true, nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		lines = append(lines, strings.ReplaceAll(line, "\t", "    "))
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("read preview: %w", err)
	}
	return lines, false, nil
}
