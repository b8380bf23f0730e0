package asmgen

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/libklein/jackc/internal/vmir"
)

// segmentBase maps the four pointer-style segments to their base-register
// symbol. Static, constant, pointer and temp are handled separately below.
var segmentBase = map[vmir.Segment]string{
	vmir.Argument: "ARG",
	vmir.Local:    "LCL",
	vmir.This:     "THIS",
	vmir.That:     "THAT",
}

const (
	pointerBase = 3
	tempBase    = 5
)

// Translator lowers a stream of vmir.Command values into target-assembly
// Instructions. It carries three pieces of state across calls:
//
//   - the current file's static-segment prefix (SetFile), since "static i"
//     resolves to a symbol namespaced by the source file's stem;
//   - a comparison-label counter, captured once per eq/gt/lt translation
//     (never shared across nested calls — see spec.md §9's label-reuse
//     bug fix);
//   - a call-site counter for return-address labels, which is class-global
//     and never reset, so return labels never collide across an entire
//     translation unit.
type Translator struct {
	file              string
	comparisonCounter int
	callCounter       int
}

// NewTranslator returns a Translator ready to translate the first file of
// a translation unit. SetFile must be called before any command that
// references the static segment.
func NewTranslator() *Translator {
	return &Translator{}
}

// SetFile records the static-segment prefix for subsequently translated
// commands — the stem of the VM source file currently being lowered.
func (t *Translator) SetFile(stem string) {
	t.file = stem
}

// Bootstrap returns the fixed prologue emitted exactly once per output
// artifact: initialize SP to 256, then call Sys.init with no arguments.
func (t *Translator) Bootstrap() []Instruction {
	instrs := []Instruction{a("256"), c("D", "A", ""), a("SP"), c("M", "D", "")}
	return append(instrs, t.translateCall("Sys.init", 0)...)
}

// Translate lowers a single VM IR command to its target-assembly
// expansion.
func (t *Translator) Translate(cmd vmir.Command) ([]Instruction, error) {
	switch cmd.Kind {
	case vmir.KindPush:
		return t.translatePush(cmd.Segment, cmd.Index)
	case vmir.KindPop:
		return t.translatePop(cmd.Segment, cmd.Index)
	case vmir.KindArithmetic:
		return t.translateArithmetic(cmd.Op)
	case vmir.KindLabel:
		return []Instruction{lbl(cmd.Label)}, nil
	case vmir.KindGoto:
		return []Instruction{a(cmd.Label), c("", "0", "JMP")}, nil
	case vmir.KindIfGoto:
		instrs := popToD()
		return append(instrs, a(cmd.Label), c("", "D", "JNE")), nil
	case vmir.KindCall:
		return t.translateCall(cmd.Name, cmd.NArgs), nil
	case vmir.KindFunction:
		return t.translateFunction(cmd.Name, cmd.NLocal), nil
	case vmir.KindReturn:
		return t.translateReturn(), nil
	default:
		return nil, errors.Errorf("asmgen: unrecognized vm command kind %d", cmd.Kind)
	}
}

func pushDToStack() []Instruction {
	return []Instruction{
		a("SP"), c("A", "M", ""),
		c("M", "D", ""),
		a("SP"), c("M", "M+1", ""),
	}
}

func popToD() []Instruction {
	return []Instruction{
		a("SP"), c("M", "M-1", ""),
		c("A", "M", ""),
		c("D", "M", ""),
	}
}

func (t *Translator) translatePush(seg vmir.Segment, index int) ([]Instruction, error) {
	switch seg {
	case vmir.Constant:
		instrs := []Instruction{a(strconv.Itoa(index)), c("D", "A", "")}
		return append(instrs, pushDToStack()...), nil
	case vmir.Static:
		if t.file == "" {
			return nil, errors.New("asmgen: push static before SetFile was called")
		}
		sym := t.file + "." + strconv.Itoa(index)
		instrs := []Instruction{a(sym), c("D", "M", "")}
		return append(instrs, pushDToStack()...), nil
	case vmir.Pointer, vmir.Temp:
		base := pointerBase
		if seg == vmir.Temp {
			base = tempBase
		}
		instrs := []Instruction{
			a(strconv.Itoa(index)), c("D", "A", ""),
			a(strconv.Itoa(base)), c("A", "D+A", ""),
			c("D", "M", ""),
		}
		return append(instrs, pushDToStack()...), nil
	case vmir.Argument, vmir.Local, vmir.This, vmir.That:
		instrs := []Instruction{
			a(strconv.Itoa(index)), c("D", "A", ""),
			a(segmentBase[seg]), c("A", "D+M", ""),
			c("D", "M", ""),
		}
		return append(instrs, pushDToStack()...), nil
	default:
		return nil, errors.Errorf("asmgen: unrecognized push segment %q", seg)
	}
}

func (t *Translator) translatePop(seg vmir.Segment, index int) ([]Instruction, error) {
	switch seg {
	case vmir.Static:
		if t.file == "" {
			return nil, errors.New("asmgen: pop static before SetFile was called")
		}
		sym := t.file + "." + strconv.Itoa(index)
		instrs := popToD()
		return append(instrs, a(sym), c("M", "D", "")), nil
	case vmir.Pointer, vmir.Temp:
		base := pointerBase
		if seg == vmir.Temp {
			base = tempBase
		}
		instrs := []Instruction{
			a(strconv.Itoa(base)), c("D", "A", ""),
			a(strconv.Itoa(index)), c("D", "D+A", ""),
			a("R13"), c("M", "D", ""),
		}
		instrs = append(instrs, popToD()...)
		return append(instrs, a("R13"), c("A", "M", ""), c("M", "D", "")), nil
	case vmir.Argument, vmir.Local, vmir.This, vmir.That:
		instrs := []Instruction{
			a(segmentBase[seg]), c("D", "M", ""),
			a(strconv.Itoa(index)), c("D", "D+A", ""),
			a("R13"), c("M", "D", ""),
		}
		instrs = append(instrs, popToD()...)
		return append(instrs, a("R13"), c("A", "M", ""), c("M", "D", "")), nil
	default:
		return nil, errors.Errorf("asmgen: cannot pop into segment %q", seg)
	}
}

var binaryComp = map[vmir.Op]string{
	vmir.Add: "M+D",
	vmir.Sub: "M-D",
	vmir.And: "M&D",
	vmir.Or:  "M|D",
}

var unaryComp = map[vmir.Op]string{
	vmir.Neg: "-M",
	vmir.Not: "!M",
}

var comparisonJump = map[vmir.Op]string{
	vmir.Eq: "JEQ",
	vmir.Gt: "JGT",
	vmir.Lt: "JLT",
}

func (t *Translator) translateArithmetic(op vmir.Op) ([]Instruction, error) {
	if comp, ok := binaryComp[op]; ok {
		return translateBinary(comp), nil
	}
	if comp, ok := unaryComp[op]; ok {
		return translateUnary(comp), nil
	}
	if jump, ok := comparisonJump[op]; ok {
		return t.translateComparison(jump), nil
	}
	return nil, errors.Errorf("asmgen: unrecognized arithmetic op %q", op)
}

func translateBinary(comp string) []Instruction {
	return []Instruction{
		a("SP"), c("A", "M-1", ""), c("D", "M", ""),
		a("SP"), c("M", "M-1", ""),
		c("A", "M-1", ""), c("M", comp, ""),
	}
}

func translateUnary(comp string) []Instruction {
	return []Instruction{a("SP"), c("A", "M-1", ""), c("M", comp, "")}
}

// translateComparison captures the counter exactly once, at the start of
// this call, so nested helper invocations can never observe or mutate a
// value meant for a different comparison.
func (t *Translator) translateComparison(jump string) []Instruction {
	n := t.comparisonCounter
	t.comparisonCounter++

	trueLabel := "TRUE_" + strconv.Itoa(n)
	endLabel := "END_" + strconv.Itoa(n)

	instrs := translateBinary("M-D")
	instrs = append(instrs, popToD()...)
	instrs = append(instrs,
		a(trueLabel), c("", "D", jump),
		a("0"), c("D", "A", ""),
		a(endLabel), c("", "0", "JMP"),
		lbl(trueLabel),
		a("1"), c("D", "A", ""),
		lbl(endLabel),
	)
	instrs = append(instrs, pushDToStack()...)
	instrs = append(instrs, translateUnary("-M")...)
	return instrs
}

func (t *Translator) translateFunction(name string, nLocal int) []Instruction {
	instrs := []Instruction{lbl(name)}
	for i := 0; i < nLocal; i++ {
		instrs = append(instrs, a("0"), c("D", "A", ""))
		instrs = append(instrs, pushDToStack()...)
	}
	return instrs
}

// translateCall is also used internally by Bootstrap, which invokes
// Sys.init the same way any other call site would.
func (t *Translator) translateCall(name string, nArgs int) []Instruction {
	retLabel := "RET_" + strconv.Itoa(t.callCounter)
	t.callCounter++

	instrs := []Instruction{a(retLabel), c("D", "A", "")}
	instrs = append(instrs, pushDToStack()...)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		instrs = append(instrs, a(reg), c("D", "M", ""))
		instrs = append(instrs, pushDToStack()...)
	}
	instrs = append(instrs,
		a("SP"), c("D", "M", ""),
		a(strconv.Itoa(5+nArgs)), c("D", "D-A", ""),
		a("ARG"), c("M", "D", ""),
		a("SP"), c("D", "M", ""),
		a("LCL"), c("M", "D", ""),
		a(name), c("", "0", "JMP"),
		lbl(retLabel),
	)
	return instrs
}

// translateReturn captures RET (FRAME-5) before ARG is overwritten and
// before LCL is restored to the caller's frame, in that order: when a
// callee takes zero arguments, the saved return address sits at the same
// slot that ARG's repositioning would otherwise clobber first.
func (t *Translator) translateReturn() []Instruction {
	instrs := []Instruction{
		a("LCL"), c("D", "M", ""), a("FRAME"), c("M", "D", ""),
		a("5"), c("A", "D-A", ""), c("D", "M", ""), a("RET"), c("M", "D", ""),
	}
	instrs = append(instrs, popToD()...)
	instrs = append(instrs, a("ARG"), c("A", "M", ""), c("M", "D", ""))
	instrs = append(instrs, a("ARG"), c("D", "M", ""), a("SP"), c("M", "D+1", ""))

	for _, restore := range []struct {
		offset int
		reg    string
	}{{1, "THAT"}, {2, "THIS"}, {3, "ARG"}, {4, "LCL"}} {
		instrs = append(instrs,
			a("FRAME"), c("D", "M", ""),
			a(strconv.Itoa(restore.offset)), c("A", "D-A", ""),
			c("D", "M", ""),
			a(restore.reg), c("M", "D", ""),
		)
	}

	instrs = append(instrs, a("RET"), c("A", "M", ""), c("", "0", "JMP"))
	return instrs
}
