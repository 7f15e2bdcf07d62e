package condor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseDescription reads a native HTCondor submit file (key = value lines).
// Comments are kept, blank lines skipped and trailing-backslash continuation
// lines joined. The only bare keyword accepted is "queue".
func ParseDescription(r io.Reader) (*Description, error) {
	var (
		ds      []Directive
		pending string
		start   int
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending == "" {
			start = lineNo
		}
		if cont, ok := strings.CutSuffix(strings.TrimRight(line, " \t"), `\`); ok {
			pending += cont
			continue
		}
		line = pending + line
		pending = ""

		d, skip, err := parseLine(line, start)
		if err != nil {
			return nil, err
		}
		if !skip {
			ds = append(ds, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading submit description: %w", err)
	}
	if pending != "" {
		return nil, &ParseError{Line: start, Content: pending, Reason: "dangling line continuation"}
	}

	desc := &Description{directives: ds}
	if _, ok := desc.Lookup("executable"); !ok {
		return nil, fmt.Errorf("%w: no executable", ErrInvalidDescription)
	}
	if desc.QueueCount() == 0 {
		return nil, fmt.Errorf("%w: no queue statement", ErrInvalidDescription)
	}
	return desc, nil
}

func parseLine(line string, lineNo int) (Directive, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Directive{}, true, nil
	}
	if strings.HasPrefix(trimmed, "#") {
		text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if text == "" {
			return Directive{}, true, nil
		}
		return Directive{Comment: text}, false, nil
	}

	if key, value, ok := strings.Cut(trimmed, "="); ok {
		key = strings.TrimSpace(key)
		if key == "" || strings.IndexFunc(key, isSpace) >= 0 {
			return Directive{}, false, &ParseError{Line: lineNo, Content: trimmed, Reason: "invalid key"}
		}
		return Directive{Key: key, Value: strings.TrimSpace(value)}, false, nil
	}

	keyword, rest, _ := strings.Cut(trimmed, " ")
	if strings.EqualFold(keyword, "queue") {
		return Directive{Key: "queue", Value: strings.TrimSpace(rest)}, false, nil
	}
	return Directive{}, false, &ParseError{Line: lineNo, Content: trimmed, Reason: "expected key = value"}
}
