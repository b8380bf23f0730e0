package asmgen

import (
	"bufio"
	"io"
)

// Generator renders a sequence of Instructions as target-assembly text,
// one instruction per line.
type Generator struct {
	out *bufio.Writer
}

// NewGenerator wraps w for instruction output.
func NewGenerator(w io.Writer) *Generator {
	return &Generator{out: bufio.NewWriter(w)}
}

// Write renders every instruction in order, each on its own line.
func (g *Generator) Write(instrs []Instruction) error {
	for _, instr := range instrs {
		if _, err := g.out.WriteString(instr.String()); err != nil {
			return err
		}
		if err := g.out.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes any buffered output.
func (g *Generator) Close() error {
	return g.out.Flush()
}
