package disasm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/vellum/lang/machine"
)

// This file implements a human-readable/writable form of a Chunk, grounded
// on the teacher's lang/compiler/asm.go. Its purpose is the same one the
// teacher states for its own asm.go: support testing of the VM without
// going through the scanning/compiling phases. CLOSURE and INVOKE are not
// supported by the assembler half (they need a live constant pool of
// function objects and named globals, which the compiler tests already
// exercise end to end); every other opcode round-trips.
//
// The operand of a jump, jump_if_false or loop line is the index of the
// target instruction in the code section, not a byte offset. Lines whose
// first field starts with '#' are comments; a comment may not follow an
// instruction on the same line.
//
// Format:
//
//	function: name arity upvalues
//	constants:
//		number 1.5
//		string "abc"
//	code:
//		constant 0
//		add
//		jump_if_false 4
//		pop
//		return

var byNameOp = map[string]machine.Opcode{
	"constant":      machine.CONSTANT,
	"nil":           machine.NIL,
	"true":          machine.TRUE,
	"false":         machine.FALSE,
	"pop":           machine.POP,
	"get_local":     machine.GET_LOCAL,
	"set_local":     machine.SET_LOCAL,
	"get_global":    machine.GET_GLOBAL,
	"define_global": machine.DEFINE_GLOBAL,
	"set_global":    machine.SET_GLOBAL,
	"get_upvalue":   machine.GET_UPVALUE,
	"set_upvalue":   machine.SET_UPVALUE,
	"get_property":  machine.GET_PROPERTY,
	"set_property":  machine.SET_PROPERTY,
	"equal":         machine.EQUAL,
	"greater":       machine.GREATER,
	"less":          machine.LESS,
	"add":           machine.ADD,
	"subtract":      machine.SUBTRACT,
	"multiply":      machine.MULTIPLY,
	"divide":        machine.DIVIDE,
	"not":           machine.NOT,
	"negate":        machine.NEGATE,
	"print":         machine.PRINT,
	"jump":          machine.JUMP,
	"jump_if_false": machine.JUMP_IF_FALSE,
	"loop":          machine.LOOP,
	"call":          machine.CALL,
	"close_upvalue": machine.CLOSE_UPVALUE,
	"return":        machine.RETURN,
	"class":         machine.CLASS,
	"method":        machine.METHOD,
}

var byteOperandOps = map[machine.Opcode]bool{
	machine.CONSTANT: true, machine.GET_LOCAL: true, machine.SET_LOCAL: true,
	machine.GET_GLOBAL: true, machine.DEFINE_GLOBAL: true, machine.SET_GLOBAL: true,
	machine.GET_UPVALUE: true, machine.SET_UPVALUE: true, machine.GET_PROPERTY: true,
	machine.SET_PROPERTY: true, machine.CLASS: true, machine.METHOD: true, machine.CALL: true,
}

var jumpOps = map[machine.Opcode]int{
	machine.JUMP: 1, machine.JUMP_IF_FALSE: 1, machine.LOOP: -1,
}

// Asm assembles the textual form in b into a FunctionObj whose Chunk can be
// driven directly through a Thread's call machinery for unit tests that
// want to bypass the compiler. Constants referenced by name-bearing opcodes
// (GET_GLOBAL and friends) must be assembled as "string" constants. String
// constants are interned through the thread's GC, so they share identity
// with compiler-emitted strings of the same content.
func Asm(th *machine.Thread, b []byte) (*machine.FunctionObj, error) {
	a := &asmState{th: th, s: bufio.NewScanner(bytes.NewReader(b))}
	fields := a.next()
	if len(fields) < 4 || fields[0] != "function:" {
		return nil, errors.New("expected function: header")
	}
	arity, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("invalid arity: %w", err)
	}
	upvalues, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("invalid upvalue count: %w", err)
	}

	fn := &machine.FunctionObj{Arity: arity, UpvalueCount: upvalues}
	if fields[1] != "<script>" {
		fn.Name = th.GC().NewString(fields[1])
	}
	a.fn = fn

	fields = a.next()
	fields = a.constants(fields)
	fields = a.code(fields)
	if a.err == nil && len(fields) > 0 {
		a.err = fmt.Errorf("unexpected section: %s", fields[0])
	}
	return fn, a.err
}

type asmState struct {
	s       *bufio.Scanner
	rawLine string
	th      *machine.Thread
	fn      *machine.FunctionObj
	err     error
}

func (a *asmState) constants(fields []string) []string {
	if a.err != nil || len(fields) == 0 || fields[0] != "constants:" {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && fields[0] != "code:"; fields = a.next() {
		if len(fields) < 2 {
			a.err = fmt.Errorf("invalid constant line: %q", a.rawLine)
			return fields
		}
		switch fields[0] {
		case "number":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				a.err = fmt.Errorf("invalid number constant: %w", err)
				return fields
			}
			if _, err := a.fn.Chunk.AddConstant(a.th, machine.Number(f)); err != nil {
				a.err = err
				return fields
			}
		case "string":
			raw := strings.TrimSpace(strings.TrimPrefix(a.rawLine, "string"))
			unquoted, err := strconv.Unquote(raw)
			if err != nil {
				a.err = fmt.Errorf("invalid string constant %q: %w", raw, err)
				return fields
			}
			s := a.th.GC().NewString(unquoted)
			if _, err := a.fn.Chunk.AddConstant(a.th, machine.ObjValue(s)); err != nil {
				a.err = err
				return fields
			}
		default:
			a.err = fmt.Errorf("invalid constant type: %s", fields[0])
			return fields
		}
	}
	return fields
}

type pendingInsn struct {
	op   machine.Opcode
	arg  int
	line int
}

func (a *asmState) code(fields []string) []string {
	if a.err != nil || len(fields) == 0 || fields[0] != "code:" {
		return fields
	}

	var insns []pendingInsn
	var indexToAddr []int
	addr := 0
	for fields = a.next(); len(fields) > 0; fields = a.next() {
		op, ok := byNameOp[fields[0]]
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", fields[0])
			return fields
		}
		var arg int
		if byteOperandOps[op] {
			if len(fields) != 2 {
				a.err = fmt.Errorf("opcode %s requires one operand", fields[0])
				return fields
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				a.err = fmt.Errorf("invalid operand for %s: %w", fields[0], err)
				return fields
			}
			arg = n
		} else if _, isJump := jumpOps[op]; isJump {
			if len(fields) != 2 {
				a.err = fmt.Errorf("opcode %s requires a target index", fields[0])
				return fields
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				a.err = fmt.Errorf("invalid jump target for %s: %w", fields[0], err)
				return fields
			}
			arg = n
		} else if len(fields) != 1 {
			a.err = fmt.Errorf("opcode %s takes no operand", fields[0])
			return fields
		}

		insns = append(insns, pendingInsn{op: op, arg: arg, line: 1})
		indexToAddr = append(indexToAddr, addr)
		addr += 1 + op.OperandWidth()
	}

	for _, in := range insns {
		a.fn.Chunk.WriteOpcode(in.op, in.line)
		if sign, isJump := jumpOps[in.op]; isJump {
			if in.arg < 0 || in.arg >= len(indexToAddr) {
				a.err = fmt.Errorf("invalid jump index %d", in.arg)
				return fields
			}
			afterOperand := len(a.fn.Chunk.Code) + 2
			offset := sign * (indexToAddr[in.arg] - afterOperand)
			a.fn.Chunk.WriteByte(byte(offset>>8), in.line)
			a.fn.Chunk.WriteByte(byte(offset), in.line)
		} else if byteOperandOps[in.op] {
			a.fn.Chunk.WriteByte(byte(in.arg), in.line)
		}
	}
	return fields
}

func (a *asmState) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) != 0 && !strings.HasPrefix(fields[0], "#") {
			a.rawLine = strings.TrimSpace(line)
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}
