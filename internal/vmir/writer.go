package vmir

import (
	"bufio"
	"io"
)

// Writer is the append-only VM emitter: each call writes exactly one
// textual line in canonical VM IR (except WriteStringConstant, which writes
// the whole multi-line sequence for one string), with no buffering
// guarantee beyond line atomicity.
type Writer struct {
	out *bufio.Writer
}

// NewWriter wraps w for VM IR emission.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

func (w *Writer) write(c Command) {
	w.out.WriteString(c.String())
	w.out.WriteByte('\n')
}

// Write emits an arbitrary, already-constructed Command. Used for commands
// resolved through a lookup table, e.g. BinaryOperator's Math.multiply /
// Math.divide calls.
func (w *Writer) Write(c Command) {
	w.write(c)
}

func (w *Writer) WritePush(segment Segment, index int) {
	w.write(Command{Kind: KindPush, Segment: segment, Index: index})
}

func (w *Writer) WritePop(segment Segment, index int) {
	w.write(Command{Kind: KindPop, Segment: segment, Index: index})
}

func (w *Writer) WriteArithmetic(op Op) {
	w.write(Command{Kind: KindArithmetic, Op: op})
}

func (w *Writer) WriteLabel(label string) {
	w.write(Command{Kind: KindLabel, Label: label})
}

func (w *Writer) WriteGoto(label string) {
	w.write(Command{Kind: KindGoto, Label: label})
}

func (w *Writer) WriteIfGoto(label string) {
	w.write(Command{Kind: KindIfGoto, Label: label})
}

func (w *Writer) WriteCall(name string, nArgs int) {
	w.write(Command{Kind: KindCall, Name: name, NArgs: nArgs})
}

func (w *Writer) WriteFunction(name string, nLocals int) {
	w.write(Command{Kind: KindFunction, Name: name, NLocal: nLocals})
}

func (w *Writer) WriteReturn() {
	w.write(Command{Kind: KindReturn})
}

// WriteStringConstant emits the fixed sequence that constructs a String
// object for s: allocate (String.new with its length), then append each
// character in order (String.appendChar, which returns the string itself,
// left on the stack after the last call).
func (w *Writer) WriteStringConstant(s string) {
	w.WritePush(Constant, len(s))
	w.WriteCall("String.new", 1)
	for _, c := range s {
		w.WritePush(Constant, int(c))
		w.WriteCall("String.appendChar", 2)
	}
}

// Close flushes any buffered output.
func (w *Writer) Close() error {
	return w.out.Flush()
}

// BinaryOperator is the fixed source-operator-to-VM-command mapping of
// spec.md §4.3: '+ - = > < & |' map directly to an arithmetic command,
// while '*' and '/' map to a call into the runtime's Math library (the
// stack machine has no native multiply/divide). It returns the Command to
// emit and whether operator was recognized as a binary operator.
func BinaryOperator(operator byte) (Command, bool) {
	switch operator {
	case '+':
		return Command{Kind: KindArithmetic, Op: Add}, true
	case '-':
		return Command{Kind: KindArithmetic, Op: Sub}, true
	case '=':
		return Command{Kind: KindArithmetic, Op: Eq}, true
	case '>':
		return Command{Kind: KindArithmetic, Op: Gt}, true
	case '<':
		return Command{Kind: KindArithmetic, Op: Lt}, true
	case '&':
		return Command{Kind: KindArithmetic, Op: And}, true
	case '|':
		return Command{Kind: KindArithmetic, Op: Or}, true
	case '*':
		return Command{Kind: KindCall, Name: "Math.multiply", NArgs: 2}, true
	case '/':
		return Command{Kind: KindCall, Name: "Math.divide", NArgs: 2}, true
	default:
		return Command{}, false
	}
}

// UnaryOperator maps the two unary source operators to their VM command.
// Unlike binary operators, these are emitted as plain arithmetic commands
// by the compiler engine itself (spec.md §4.3), not dispatched here; this
// helper exists only to keep the mapping table in one place.
func UnaryOperator(operator byte) (Op, bool) {
	switch operator {
	case '-':
		return Neg, true
	case '~':
		return Not, true
	default:
		return "", false
	}
}
