package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadMidcode parses an artifact written by WriteMidcode
func ReadMidcode(r io.Reader) (*Program, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty midcode")
	}
	prog := NewProgram(strings.TrimSpace(sc.Text()))
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", lineNo, len(parts))
		}
		op, ok := ParseOp(strings.TrimSpace(parts[0]))
		if !ok {
			return nil, fmt.Errorf("line %d: unknown operation '%s'", lineNo, parts[0])
		}
		prog.Append(Quad{
			Op:  op,
			Src: ParseAddress(strings.TrimSpace(parts[1])),
			Tgt: ParseAddress(strings.TrimSpace(parts[2])),
			Dst: ParseAddress(strings.TrimSpace(parts[3])),
		})
	}
	return prog, sc.Err()
}
