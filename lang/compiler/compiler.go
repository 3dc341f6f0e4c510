// Package compiler implements the single-pass Pratt-parsing compiler
// described by spec §4.3: tokens flow directly into bytecode with no
// intermediate AST, locals and upvalues are resolved as they are declared,
// and jumps are patched after the fact.
package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mna/vellum/lang/machine"
	"github.com/mna/vellum/lang/scanner"
	"github.com/mna/vellum/lang/token"
)

const (
	maxLocals    = 256
	maxArgs      = 255
	maxJumpRange = 1<<16 - 1
)

// funcType distinguishes the four kinds of compiled function bodies spec
// §4.3 "Function type" names, since each has different rules for what a
// bare `return` and the implicit zeroth local slot mean.
type funcType int

const (
	typeScript funcType = iota
	typeFunction
	typeMethod
	typeInitializer
)

type local struct {
	name       string
	depth      int // -1 means declared but not yet initialized
	isCaptured bool
}

type upvalue struct {
	index   uint8
	isLocal bool
}

// funcState is one function's worth of compile-time state: its own locals,
// upvalues, and in-progress FunctionObj. funcStates nest one per enclosing
// function, mirroring clox's linked Compiler structs (spec §4.3
// "Per-function compiler frame").
type funcState struct {
	enclosing *funcState

	fn      *machine.FunctionObj
	fnType  funcType
	name    string // copied into fn.Name by endFunc; empty for the script

	locals     [maxLocals]local
	localCount int
	scopeDepth int

	upvalues [maxLocals]upvalue
}

// classState tracks class-body nesting so `this` can be rejected outside a
// class. Vellum classes have no inheritance (spec §1 Non-goals), so this
// carries no superclass bookkeeping.
type classState struct {
	enclosing *classState
}

// Compiler holds everything the Pratt parser threads through a single
// compile: the token stream, the current function-in-progress, and the
// class nesting stack.
type Compiler struct {
	th      *machine.Thread
	scan    scanner.Scanner
	current token.Token
	prev    token.Token

	hadError  bool
	panicMode bool

	fs *funcState
	cs *classState
}

// Compile compiles source into a top-level script FunctionObj, matching the
// compileFn signature machine.Thread.Interpret expects. Diagnostics are
// written to th.Stderr as they are found; Compile returns a non-nil error
// if any were found, after attempting to parse the whole source so a
// single run reports more than the first mistake (spec §4.3 "error
// recovery via synchronize").
func Compile(th *machine.Thread, source []byte) (*machine.FunctionObj, error) {
	c := &Compiler{th: th}
	c.scan.Init(source)
	c.pushFunc(typeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endFunc()

	if c.hadError {
		return nil, errors.New("compile error")
	}
	return fn, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.scan.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- diagnostics --------------------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)           { c.errorAt(c.prev, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Kind {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.th.Stderr, "[line %d] Error%s: %s\n", tok.Line, where, msg)
}

// synchronize discards tokens until it reaches a likely statement boundary,
// so one mistake doesn't cascade into a wall of spurious errors (spec
// §4.3).
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.prev.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- function frames -----------------------------------------------------

func (c *Compiler) pushFunc(ft funcType, name string) {
	fs := &funcState{enclosing: c.fs, fn: c.th.GC().NewFunction(), fnType: ft, name: name, scopeDepth: 0}
	// Slot 0 is reserved: `this` for methods/initializers, otherwise unnamed
	// (holds the called closure itself), per spec §4.3 "slot zero".
	if ft == typeMethod || ft == typeInitializer {
		fs.locals[0] = local{name: "this", depth: 0}
	} else {
		fs.locals[0] = local{name: "", depth: 0}
	}
	fs.localCount = 1
	c.fs = fs
}

// endFunc finishes the current function, emitting an implicit return, and
// pops back to the enclosing funcState.
func (c *Compiler) endFunc() *machine.FunctionObj {
	c.emitReturn()
	fn := c.fs.fn
	if c.fs.name != "" {
		fn.Name = c.th.GC().NewString(c.fs.name)
	}
	fn.Upvalues = make([]machine.UpvalueDesc, fn.UpvalueCount)
	for i := 0; i < fn.UpvalueCount; i++ {
		fn.Upvalues[i] = machine.UpvalueDesc{Index: c.fs.upvalues[i].index, IsLocal: c.fs.upvalues[i].isLocal}
	}
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) chunk() *machine.Chunk { return &c.fs.fn.Chunk }

// --- byte emission -----------------------------------------------------

func (c *Compiler) emitByte(b byte)        { c.chunk().WriteByte(b, c.prev.Line) }
func (c *Compiler) emitOp(op machine.Opcode) { c.chunk().WriteOpcode(op, c.prev.Line) }

func (c *Compiler) emitOpByte(op machine.Opcode, arg byte) {
	c.emitOp(op)
	c.emitByte(arg)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(machine.LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJumpRange {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// emitJump emits op followed by a placeholder 2-byte operand and returns
// the offset of the first placeholder byte, for a later patchJump call.
func (c *Compiler) emitJump(op machine.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJumpRange {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitReturn() {
	if c.fs.fnType == typeInitializer {
		// Bare `return` in an initializer yields the instance (slot 0), not
		// nil (spec §4.3 "Classes").
		c.emitOpByte(machine.GET_LOCAL, 0)
	} else {
		c.emitOp(machine.NIL)
	}
	c.emitOp(machine.RETURN)
}

func (c *Compiler) makeConstant(v machine.Value) byte {
	idx, err := c.chunk().AddConstant(c.th, v)
	if err != nil {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v machine.Value) {
	c.emitOpByte(machine.CONSTANT, c.makeConstant(v))
}

// --- scopes, locals, upvalues -------------------------------------------

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	for c.fs.localCount > 0 && c.fs.locals[c.fs.localCount-1].depth > c.fs.scopeDepth {
		if c.fs.locals[c.fs.localCount-1].isCaptured {
			c.emitOp(machine.CLOSE_UPVALUE)
		} else {
			c.emitOp(machine.POP)
		}
		c.fs.localCount--
	}
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(machine.ObjValue(c.th.GC().NewString(name)))
}

func (c *Compiler) addLocal(name string) {
	if c.fs.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals[c.fs.localCount] = local{name: name, depth: -1}
	c.fs.localCount++
}

func (c *Compiler) declareVariable() {
	if c.fs.scopeDepth == 0 {
		return
	}
	name := c.prev.Lexeme
	for i := c.fs.localCount - 1; i >= 0; i-- {
		l := &c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// parseVariable consumes an identifier, declares it if local, and returns
// the global-name constant index (meaningless for locals, whose definition
// is implicit).
func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENT, msg)
	c.declareVariable()
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.prev.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[c.fs.localCount-1].depth = c.fs.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(machine.DEFINE_GLOBAL, global)
}

// resolveLocal looks up name among fs's locals, innermost scope first. It
// reports an error (via c) if name resolves to a local whose initializer is
// still being compiled, catching `var a = a;` (spec §4.3 "own initializer").
func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	for i := fs.localCount - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	count := fs.fn.UpvalueCount
	for i := 0; i < count; i++ {
		uv := fs.upvalues[i]
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if count == maxLocals {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues[count] = upvalue{index: index, isLocal: isLocal}
	fs.fn.UpvalueCount++
	return count
}

// resolveUpvalue walks the enclosing-function chain looking for name as a
// captured local, chaining upvalue descriptors through intermediate
// functions as needed (spec §4.3 "Upvalue resolution").
func resolveUpvalue(c *Compiler, fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fs, uint8(local), true)
	}
	if up := resolveUpvalue(c, fs.enclosing, name); up != -1 {
		return c.addUpvalue(fs, uint8(up), false)
	}
	return -1
}

// --- declarations & statements -------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	nameTok := c.prev
	nameConst := c.identifierConstant(nameTok.Lexeme)
	c.declareVariable()

	c.emitOpByte(machine.CLASS, nameConst)
	c.defineVariable(nameConst)

	c.cs = &classState{enclosing: c.cs}

	c.namedVariable(nameTok, false) // leaves the class on the stack for METHOD
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(machine.POP) // the class pushed by namedVariable above

	c.cs = c.cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	ft := typeMethod
	if name == "init" {
		ft = typeInitializer
	}
	c.function(ft, name)
	c.emitOpByte(machine.METHOD, nameConst)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction, c.prev.Lexeme)
	c.defineVariable(global)
}

func (c *Compiler) function(ft funcType, name string) {
	c.pushFunc(ft, name)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.fs.fn.Arity++
			if c.fs.fn.Arity > maxArgs {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	fs := c.fs
	fn := c.endFunc()
	c.emitOpByte(machine.CLOSURE, c.makeConstant(machine.ObjValue(fn)))
	for i := 0; i < fn.UpvalueCount; i++ {
		if fs.upvalues[i].isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(fs.upvalues[i].index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(machine.NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(machine.PRINT)
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fs.fnType == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(machine.RETURN)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(machine.JUMP_IF_FALSE)
	c.emitOp(machine.POP)
	c.statement()

	elseJump := c.emitJump(machine.JUMP)
	c.patchJump(thenJump)
	c.emitOp(machine.POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(machine.JUMP_IF_FALSE)
	c.emitOp(machine.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(machine.POP)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(machine.JUMP_IF_FALSE)
		c.emitOp(machine.POP)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(machine.JUMP)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(machine.POP)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(machine.POP)
	}
	c.endScope()
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(machine.POP)
}

// --- expressions: Pratt parser -------------------------------------------

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := rules[c.prev.Kind].prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= rules[c.current.Kind].precedence {
		c.advance()
		infix := rules[c.prev.Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.prev.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(machine.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	// Lexeme spans the surrounding quotes; strip them. No escape processing
	// (spec §7 Open Questions).
	raw := c.prev.Lexeme
	chars := raw[1 : len(raw)-1]
	c.emitConstant(machine.ObjValue(c.th.GC().NewString(chars)))
}

func literal(c *Compiler, _ bool) {
	switch c.prev.Kind {
	case token.FALSE:
		c.emitOp(machine.FALSE)
	case token.TRUE:
		c.emitOp(machine.TRUE)
	case token.NIL:
		c.emitOp(machine.NIL)
	}
}

func unary(c *Compiler, _ bool) {
	opKind := c.prev.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(machine.NEGATE)
	case token.BANG:
		c.emitOp(machine.NOT)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.prev.Kind
	rule := rules[opKind]
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		c.emitOp(machine.EQUAL)
		c.emitOp(machine.NOT)
	case token.EQUAL_EQUAL:
		c.emitOp(machine.EQUAL)
	case token.GREATER:
		c.emitOp(machine.GREATER)
	case token.GREATER_EQUAL:
		c.emitOp(machine.LESS)
		c.emitOp(machine.NOT)
	case token.LESS:
		c.emitOp(machine.LESS)
	case token.LESS_EQUAL:
		c.emitOp(machine.GREATER)
		c.emitOp(machine.NOT)
	case token.PLUS:
		c.emitOp(machine.ADD)
	case token.MINUS:
		c.emitOp(machine.SUBTRACT)
	case token.STAR:
		c.emitOp(machine.MULTIPLY)
	case token.SLASH:
		c.emitOp(machine.DIVIDE)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(machine.JUMP_IF_FALSE)
	c.emitOp(machine.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(machine.JUMP_IF_FALSE)
	endJump := c.emitJump(machine.JUMP)
	c.patchJump(elseJump)
	c.emitOp(machine.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(machine.CALL, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			count++
			if count > maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}

func dot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.prev.Lexeme)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(machine.SET_PROPERTY, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOp(machine.INVOKE)
		c.emitByte(name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(machine.GET_PROPERTY, name)
	}
}

func variable(c *Compiler, canAssign bool) { c.namedVariable(c.prev, canAssign) }

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp machine.Opcode
	arg := c.resolveLocal(c.fs, name.Lexeme)
	if arg != -1 {
		getOp, setOp = machine.GET_LOCAL, machine.SET_LOCAL
	} else if arg = resolveUpvalue(c, c.fs, name.Lexeme); arg != -1 {
		getOp, setOp = machine.GET_UPVALUE, machine.SET_UPVALUE
	} else {
		arg = int(c.identifierConstant(name.Lexeme))
		getOp, setOp = machine.GET_GLOBAL, machine.SET_GLOBAL
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func this_(c *Compiler, _ bool) {
	if c.cs == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	variable(c, false)
}

func super_(c *Compiler, _ bool) {
	// Vellum classes never have a superclass (spec §1 Non-goals). The token
	// survives from the source grammar (spec §4.1's keyword list), but any
	// use is rejected here rather than in the scanner.
	c.error("Classes have no superclass; 'super' is not supported.")
}

// rules is the Pratt parse table, keyed by token.Kind, built once at package
// init time (spec §4.3 "rule table"). Kinds with no entry get the zero
// parseRule (no prefix, no infix, precNone), which is exactly what
// parsePrecedence needs for punctuation that never starts or continues an
// expression.
var rules = map[token.Kind]parseRule{}

func init() {
	set := func(k token.Kind, prefix, infix parseFn, prec precedence) {
		rules[k] = parseRule{prefix: prefix, infix: infix, precedence: prec}
	}

	set(token.LPAREN, grouping, call, precCall)
	set(token.DOT, nil, dot, precCall)
	set(token.MINUS, unary, binary, precTerm)
	set(token.PLUS, nil, binary, precTerm)
	set(token.SLASH, nil, binary, precFactor)
	set(token.STAR, nil, binary, precFactor)
	set(token.BANG, unary, nil, precNone)
	set(token.BANG_EQUAL, nil, binary, precEquality)
	set(token.EQUAL_EQUAL, nil, binary, precEquality)
	set(token.GREATER, nil, binary, precComparison)
	set(token.GREATER_EQUAL, nil, binary, precComparison)
	set(token.LESS, nil, binary, precComparison)
	set(token.LESS_EQUAL, nil, binary, precComparison)
	set(token.IDENT, variable, nil, precNone)
	set(token.STRING, stringLiteral, nil, precNone)
	set(token.NUMBER, number, nil, precNone)
	set(token.AND, nil, and_, precAnd)
	set(token.OR, nil, or_, precOr)
	set(token.FALSE, literal, nil, precNone)
	set(token.TRUE, literal, nil, precNone)
	set(token.NIL, literal, nil, precNone)
	set(token.THIS, this_, nil, precNone)
	set(token.SUPER, super_, nil, precNone)
}
