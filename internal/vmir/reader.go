package vmir

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reader parses VM IR text into Command values, one per non-blank,
// non-comment line, in the teacher's own Scan()/cursor idiom.
type Reader struct {
	scanner *bufio.Scanner
	current Command
	err     error
}

// NewReader wraps r for VM IR parsing. Blank lines and "// ..." comments
// are ignored, per spec.md §6.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Scan advances to the next command, returning false at EOF or on a parse
// error (distinguishable via Err).
func (r *Reader) Scan() bool {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			r.err = err
			return false
		}
		r.current = cmd
		return true
	}
	r.err = r.scanner.Err()
	return false
}

// Command returns the command produced by the most recent successful Scan.
func (r *Reader) Command() Command { return r.current }

// Err returns the first error encountered, if Scan returned false because
// of one (as opposed to a clean EOF).
func (r *Reader) Err() error { return r.err }

var arithmeticOps = map[string]Op{
	"add": Add, "sub": Sub, "neg": Neg, "eq": Eq, "gt": Gt,
	"lt": Lt, "and": And, "or": Or, "not": Not,
}

func parseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("empty vm command")
	}

	if op, ok := arithmeticOps[fields[0]]; ok {
		return Command{Kind: KindArithmetic, Op: op}, nil
	}

	switch fields[0] {
	case "push", "pop":
		if len(fields) != 3 {
			return Command{}, errors.Errorf("malformed %s command: %q", fields[0], line)
		}
		idx, err := strconv.Atoi(fields[2])
		if err != nil {
			return Command{}, errors.Wrapf(err, "malformed index in %q", line)
		}
		kind := KindPush
		if fields[0] == "pop" {
			kind = KindPop
		}
		return Command{Kind: kind, Segment: Segment(fields[1]), Index: idx}, nil
	case "label":
		if len(fields) != 2 {
			return Command{}, errors.Errorf("malformed label command: %q", line)
		}
		return Command{Kind: KindLabel, Label: fields[1]}, nil
	case "goto":
		if len(fields) != 2 {
			return Command{}, errors.Errorf("malformed goto command: %q", line)
		}
		return Command{Kind: KindGoto, Label: fields[1]}, nil
	case "if-goto":
		if len(fields) != 2 {
			return Command{}, errors.Errorf("malformed if-goto command: %q", line)
		}
		return Command{Kind: KindIfGoto, Label: fields[1]}, nil
	case "call":
		if len(fields) != 3 {
			return Command{}, errors.Errorf("malformed call command: %q", line)
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Command{}, errors.Wrapf(err, "malformed arg count in %q", line)
		}
		return Command{Kind: KindCall, Name: fields[1], NArgs: n}, nil
	case "function":
		if len(fields) != 3 {
			return Command{}, errors.Errorf("malformed function command: %q", line)
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Command{}, errors.Wrapf(err, "malformed local count in %q", line)
		}
		return Command{Kind: KindFunction, Name: fields[1], NLocal: n}, nil
	case "return":
		return Command{Kind: KindReturn}, nil
	default:
		return Command{}, errors.Errorf("unknown vm command %q", line)
	}
}
