// Package compiler implements the Compilation Engine: a single-pass,
// recursive-descent parser over the source language that emits VM IR as it
// goes. It never backtracks and uses at most one token of look-ahead, to
// disambiguate subroutine calls ("name(" vs "name.") and array indexing
// ("name[") in terms.
package compiler

import (
	"fmt"

	"github.com/libklein/jackc/internal/diag"
	"github.com/libklein/jackc/internal/symtab"
	"github.com/libklein/jackc/internal/token"
	"github.com/libklein/jackc/internal/vmir"
)

// TokenScanner is the cursor interface the engine drives: Scan advances,
// Token reads the current token, Err reports a lexical failure. *lexer.Stream
// satisfies this.
type TokenScanner interface {
	Scan() bool
	Token() token.Token
	Err() error
}

var binaryOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "&": true,
	"|": true, "<": true, ">": true, "=": true,
}

var unaryOperators = map[string]bool{"-": true, "~": true}

// Compiler drives one class compilation: tokens in, VM IR out.
type Compiler struct {
	tokens    TokenScanner
	symbols   *symtab.Table
	out       *vmir.Writer
	className string

	ifCounter    int
	whileCounter int

	current token.Token
}

// New constructs a Compiler for one source file.
func New(tokens TokenScanner, out *vmir.Writer) *Compiler {
	return &Compiler{
		tokens:  tokens,
		symbols: symtab.New(),
		out:     out,
	}
}

// Compile compiles exactly one class, the top-level rule of the grammar.
func (c *Compiler) Compile() error {
	if !c.tokens.Scan() {
		if err := c.tokens.Err(); err != nil {
			return err
		}
		return diag.NewSyntaxError(diag.Position{}, "class", "<empty file>")
	}
	c.current = c.tokens.Token()
	return c.compileClass()
}

func (c *Compiler) pos() diag.Position { return c.current.Pos }

// advance moves the cursor to the next token. Returns an error (rather than
// the teacher's panic) if the underlying scanner is exhausted or failed.
func (c *Compiler) advance() error {
	if !c.tokens.Scan() {
		if err := c.tokens.Err(); err != nil {
			return err
		}
		return diag.NewSyntaxError(c.pos(), "more input", "<end of file>")
	}
	c.current = c.tokens.Token()
	return nil
}

// consume checks the current token against expectedTerminals in order,
// advancing past each. With no arguments it just advances unconditionally
// (used after disambiguating look-ahead already confirmed the token).
func (c *Compiler) consume(expectedTerminals ...string) error {
	if len(expectedTerminals) == 0 {
		return c.advance()
	}
	for _, expected := range expectedTerminals {
		if c.current.Terminal != expected {
			return diag.NewSyntaxError(c.pos(), expected, c.current.Terminal)
		}
		if err := c.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) expectIdentifier() (string, error) {
	if c.current.Type != token.Identifier {
		return "", diag.NewSyntaxError(c.pos(), "identifier", c.current.Terminal)
	}
	name := c.current.Terminal
	if err := c.advance(); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Compiler) expectType() (string, error) {
	if c.current.Is("int", "char", "boolean") || c.current.Type == token.Identifier {
		typ := c.current.Terminal
		if err := c.advance(); err != nil {
			return "", err
		}
		return typ, nil
	}
	return "", diag.NewSyntaxError(c.pos(), "type", c.current.Terminal)
}

// --- class ---

func (c *Compiler) compileClass() error {
	if err := c.consume("class"); err != nil {
		return err
	}

	c.symbols.StartClass()

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	c.className = name

	if err := c.consume("{"); err != nil {
		return err
	}

	for c.current.Is("static", "field") {
		if err := c.compileClassVarDec(); err != nil {
			return err
		}
	}
	for c.current.Is("constructor", "function", "method") {
		if err := c.compileSubroutineDec(); err != nil {
			return err
		}
	}

	// The class's closing '}' is the last token of the file, so it is
	// checked without advancing past it.
	if !c.current.Is("}") {
		return diag.NewSyntaxError(c.pos(), "}", c.current.Terminal)
	}
	return nil
}

func (c *Compiler) compileClassVarDec() error {
	var kind symtab.Kind
	switch {
	case c.current.Is("static"):
		kind = symtab.Static
	case c.current.Is("field"):
		kind = symtab.Field
	default:
		return diag.NewSyntaxError(c.pos(), `"static" or "field"`, c.current.Terminal)
	}
	if err := c.advance(); err != nil {
		return err
	}
	if err := c.compileVarSequence(kind); err != nil {
		return err
	}
	return c.consume(";")
}

// compileVarSequence parses "type name (, name)*" and declares each name at
// kind, leaving the cursor on the terminating ';'.
func (c *Compiler) compileVarSequence(kind symtab.Kind) error {
	typ, err := c.expectType()
	if err != nil {
		return err
	}
	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		c.symbols.Define(name, typ, kind)
		if c.current.Is(",") {
			if err := c.consume(","); err != nil {
				return err
			}
			continue
		}
		break
	}
	return nil
}

// --- subroutines ---

type subroutineKind string

const (
	subConstructor subroutineKind = "constructor"
	subFunction    subroutineKind = "function"
	subMethod      subroutineKind = "method"
)

func (c *Compiler) compileSubroutineDec() error {
	c.symbols.StartSubroutine()

	kind := subroutineKind(c.current.Terminal)
	if err := c.advance(); err != nil { // consume constructor/function/method
		return err
	}

	// return type: void | type
	returnType := c.current
	if err := c.advance(); err != nil { // consume return type
		return err
	}
	if kind == subConstructor && returnType.Terminal != c.className {
		return diag.NewSemanticError(returnType.Pos, fmt.Sprintf("constructor type %q is not its class %q", returnType.Terminal, c.className))
	}

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	if kind == subMethod {
		c.symbols.Define("this", c.className, symtab.Argument)
	}

	if err := c.consume("("); err != nil {
		return err
	}
	if !c.current.Is(")") {
		if err := c.compileParameterList(); err != nil {
			return err
		}
	}
	if err := c.consume(")"); err != nil {
		return err
	}

	return c.compileSubroutineBody(name, kind)
}

func (c *Compiler) compileParameterList() error {
	for {
		typ, err := c.expectType()
		if err != nil {
			return err
		}
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		c.symbols.Define(name, typ, symtab.Argument)
		if c.current.Is(",") {
			if err := c.consume(","); err != nil {
				return err
			}
			continue
		}
		break
	}
	return nil
}

func (c *Compiler) compileSubroutineBody(name string, kind subroutineKind) error {
	if err := c.consume("{"); err != nil {
		return err
	}

	for c.current.Is("var") {
		if err := c.consume("var"); err != nil {
			return err
		}
		if err := c.compileVarSequence(symtab.Local); err != nil {
			return err
		}
		if err := c.consume(";"); err != nil {
			return err
		}
	}

	nLocals := c.symbols.Count(symtab.Local)
	c.out.WriteFunction(c.className+"."+name, nLocals)

	switch kind {
	case subConstructor:
		nFields := c.symbols.Count(symtab.Field)
		c.out.WritePush(vmir.Constant, nFields)
		c.out.WriteCall("Memory.alloc", 1)
		c.out.WritePop(vmir.Pointer, 0)
	case subMethod:
		c.out.WritePush(vmir.Argument, 0)
		c.out.WritePop(vmir.Pointer, 0)
	}

	if err := c.compileStatements(); err != nil {
		return err
	}
	return c.consume("}")
}

// --- statements ---

func (c *Compiler) compileStatements() error {
	for {
		switch {
		case c.current.Is("let"):
			if err := c.compileLet(); err != nil {
				return err
			}
		case c.current.Is("if"):
			if err := c.compileIf(); err != nil {
				return err
			}
		case c.current.Is("while"):
			if err := c.compileWhile(); err != nil {
				return err
			}
		case c.current.Is("do"):
			if err := c.compileDo(); err != nil {
				return err
			}
		case c.current.Is("return"):
			if err := c.compileReturn(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Compiler) compileLet() error {
	if err := c.consume("let"); err != nil {
		return err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	isArrayAccess := false
	if c.current.Is("[") {
		isArrayAccess = true
		if err := c.consume("["); err != nil {
			return err
		}
		if err := c.compileArrayElemAddress(name); err != nil {
			return err
		}
		if err := c.consume("]"); err != nil {
			return err
		}
	}

	if err := c.consume("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.consume(";"); err != nil {
		return err
	}

	if isArrayAccess {
		// Destination address already on the stack (below the RHS value,
		// which compileExpression just pushed). This ordering evaluates the
		// RHS after the destination address is computed but before `that`
		// is clobbered, so the RHS itself may contain array indexing.
		c.out.WritePop(vmir.Temp, 0)
		c.out.WritePop(vmir.Pointer, 1)
		c.out.WritePush(vmir.Temp, 0)
		c.out.WritePop(vmir.That, 0)
		return nil
	}

	segment, index, serr := c.variableAccess(name)
	if serr != nil {
		return serr
	}
	c.out.WritePop(segment, index)
	return nil
}

func (c *Compiler) compileWhile() error {
	if err := c.consume("while", "("); err != nil {
		return err
	}
	n := c.whileCounter
	c.whileCounter++

	expLabel := fmt.Sprintf("WHILE_EXP_%d", n)
	endLabel := fmt.Sprintf("WHILE_END_%d", n)

	c.out.WriteLabel(expLabel)
	if err := c.compileExpression(); err != nil {
		return err
	}
	c.out.WriteArithmetic(vmir.Not)
	c.out.WriteIfGoto(endLabel)

	if err := c.consume(")", "{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.consume("}"); err != nil {
		return err
	}

	c.out.WriteGoto(expLabel)
	c.out.WriteLabel(endLabel)
	return nil
}

func (c *Compiler) compileIf() error {
	if err := c.consume("if", "("); err != nil {
		return err
	}
	n := c.ifCounter
	c.ifCounter++

	falseLabel := fmt.Sprintf("IF_FALSE_%d", n)
	endLabel := fmt.Sprintf("IF_END_%d", n)

	if err := c.compileExpression(); err != nil {
		return err
	}
	c.out.WriteArithmetic(vmir.Not)
	c.out.WriteIfGoto(falseLabel)

	if err := c.consume(")", "{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.consume("}"); err != nil {
		return err
	}

	c.out.WriteGoto(endLabel)
	c.out.WriteLabel(falseLabel)

	if c.current.Is("else") {
		if err := c.consume("else", "{"); err != nil {
			return err
		}
		if err := c.compileStatements(); err != nil {
			return err
		}
		if err := c.consume("}"); err != nil {
			return err
		}
	}

	c.out.WriteLabel(endLabel)
	return nil
}

func (c *Compiler) compileDo() error {
	if err := c.consume("do"); err != nil {
		return err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	if err := c.compileSubroutineCall(name); err != nil {
		return err
	}
	c.out.WritePop(vmir.Temp, 0)
	return c.consume(";")
}

func (c *Compiler) compileReturn() error {
	if err := c.consume("return"); err != nil {
		return err
	}
	if !c.current.Is(";") {
		if err := c.compileExpression(); err != nil {
			return err
		}
	} else {
		c.out.WritePush(vmir.Constant, 0)
	}
	c.out.WriteReturn()
	return c.consume(";")
}

// --- expressions ---

func (c *Compiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}
	for binaryOperators[c.current.Terminal] && c.current.Type == token.Symbol {
		operator := c.current.Terminal[0]
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		cmd, _ := vmir.BinaryOperator(operator)
		c.out.Write(cmd)
	}
	return nil
}

// compileExpressionList parses a parenthesized-free, comma-separated list
// of zero or more expressions, terminated by ')', returning the count.
func (c *Compiler) compileExpressionList() (int, error) {
	if c.current.Is(")") {
		return 0, nil
	}
	n := 0
	for {
		if err := c.compileExpression(); err != nil {
			return 0, err
		}
		n++
		if c.current.Is(",") {
			if err := c.consume(","); err != nil {
				return 0, err
			}
			continue
		}
		break
	}
	return n, nil
}

func (c *Compiler) compileTerm() error {
	tok := c.current
	switch {
	case tok.Type == token.IntegerConstant:
		n, err := tok.AsInt()
		if err != nil {
			return err
		}
		c.out.WritePush(vmir.Constant, int(n))
		return c.advance()

	case tok.Type == token.StringConstant:
		c.out.WriteStringConstant(tok.Terminal)
		return c.advance()

	case tok.Type == token.Keyword:
		switch tok.Terminal {
		case "true":
			c.out.WritePush(vmir.Constant, 0)
			c.out.WriteArithmetic(vmir.Not)
		case "false", "null":
			c.out.WritePush(vmir.Constant, 0)
		case "this":
			c.out.WritePush(vmir.Pointer, 0)
		default:
			return diag.NewSyntaxError(c.pos(), "keyword constant", tok.Terminal)
		}
		return c.advance()

	case tok.Is("("):
		if err := c.consume("("); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}
		return c.consume(")")

	case unaryOperators[tok.Terminal] && tok.Type == token.Symbol:
		op, _ := vmir.UnaryOperator(tok.Terminal[0])
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.out.WriteArithmetic(op)
		return nil

	case tok.Type == token.Identifier:
		return c.compileVarNameTerm(tok.Terminal)

	default:
		return diag.NewSyntaxError(c.pos(), "term", tok.Terminal)
	}
}

// compileVarNameTerm handles the three productions that start with an
// identifier: plain variable access, array indexing, and a subroutine call
// ("name(" or "name.other(").
func (c *Compiler) compileVarNameTerm(name string) error {
	if err := c.advance(); err != nil {
		return err
	}

	switch {
	case c.current.Is("["):
		if err := c.consume("["); err != nil {
			return err
		}
		if err := c.compileArrayElemAddress(name); err != nil {
			return err
		}
		if err := c.consume("]"); err != nil {
			return err
		}
		c.out.WritePop(vmir.Pointer, 1)
		c.out.WritePush(vmir.That, 0)
		return nil

	case c.current.Is("(", "."):
		return c.compileSubroutineCall(name)

	default:
		segment, index, err := c.variableAccess(name)
		if err != nil {
			return err
		}
		c.out.WritePush(segment, index)
		return nil
	}
}

// compileArrayElemAddress compiles "expr" (the index expression, already
// positioned after the '[') and emits base+index, leaving the element
// address on top of the stack.
func (c *Compiler) compileArrayElemAddress(name string) error {
	if err := c.compileExpression(); err != nil {
		return err
	}
	segment, index, err := c.variableAccess(name)
	if err != nil {
		return err
	}
	c.out.WritePush(segment, index)
	c.out.WriteArithmetic(vmir.Add)
	return nil
}

// compileSubroutineCall compiles a call where `name` has already been
// consumed and the cursor sits on '(' or '.'.
func (c *Compiler) compileSubroutineCall(name string) error {
	switch {
	case c.current.Is("."):
		if err := c.consume("."); err != nil {
			return err
		}
		method, err := c.expectIdentifier()
		if err != nil {
			return err
		}

		nArgs := 0
		fullName := name + "." + method
		if entry, ok := c.symbols.Lookup(name); ok {
			nArgs++
			segment, index, verr := c.variableAccess(name)
			if verr != nil {
				return verr
			}
			c.out.WritePush(segment, index)
			fullName = entry.Type + "." + method
		}

		if err := c.consume("("); err != nil {
			return err
		}
		n, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		nArgs += n
		if err := c.consume(")"); err != nil {
			return err
		}
		c.out.WriteCall(fullName, nArgs)
		return nil

	case c.current.Is("("):
		c.out.WritePush(vmir.Pointer, 0)
		if err := c.consume("("); err != nil {
			return err
		}
		n, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.consume(")"); err != nil {
			return err
		}
		c.out.WriteCall(c.className+"."+name, 1+n)
		return nil

	default:
		return diag.NewSyntaxError(c.pos(), `"(" or "."`, c.current.Terminal)
	}
}

// variableAccess resolves name to its VM segment and index, reporting a
// SemanticError (rather than the teacher's panic) for an undeclared name.
func (c *Compiler) variableAccess(name string) (vmir.Segment, int, error) {
	entry, ok := c.symbols.Lookup(name)
	if !ok {
		return "", 0, diag.NewSemanticError(c.pos(), fmt.Sprintf("undefined identifier %q", name))
	}
	switch entry.Kind {
	case symtab.Static:
		return vmir.Static, entry.Index, nil
	case symtab.Field:
		return vmir.This, entry.Index, nil
	case symtab.Argument:
		return vmir.Argument, entry.Index, nil
	case symtab.Local:
		return vmir.Local, entry.Index, nil
	default:
		return "", 0, diag.NewSemanticError(c.pos(), fmt.Sprintf("identifier %q has no storage kind", name))
	}
}
