// Package disasm renders a compiled Chunk back to human-readable text, the
// debugging aid spec §4 component #9 names ("Disassembler: renders a Chunk
// back to readable text"). It is grounded on the teacher's
// lang/compiler/asm.go, whose disassembly half walks a code buffer
// instruction-by-instruction printing offset, line, and decoded operand.
package disasm

import (
	"fmt"
	"io"

	"github.com/mna/vellum/lang/machine"
)

// Function writes a full listing of fn's chunk (and, recursively, every
// nested function its constant pool holds) to w.
func Function(w io.Writer, fn *machine.FunctionObj) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fmt.Fprintf(w, "== %s ==\n", name)
	Chunk(w, &fn.Chunk)
	for _, v := range fn.Chunk.Constants {
		if v.IsObjKind(machine.ObjFunctionKind) {
			Function(w, v.AsFunction())
		}
	}
}

// Chunk writes one disassembled line per instruction in c to w.
func Chunk(w io.Writer, c *machine.Chunk) {
	for offset := 0; offset < len(c.Code); {
		offset = Instruction(w, c, offset)
	}
}

// Instruction disassembles the single instruction at offset, writes it to
// w, and returns the offset of the following instruction.
func Instruction(w io.Writer, c *machine.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := machine.Opcode(c.Code[offset])
	switch op {
	case machine.GET_LOCAL, machine.SET_LOCAL, machine.GET_UPVALUE, machine.SET_UPVALUE, machine.CALL:
		return byteInstruction(w, op, c, offset)
	case machine.CONSTANT, machine.GET_GLOBAL, machine.DEFINE_GLOBAL, machine.SET_GLOBAL,
		machine.GET_PROPERTY, machine.SET_PROPERTY, machine.CLASS, machine.METHOD:
		return constantInstruction(w, op, c, offset)
	case machine.JUMP, machine.JUMP_IF_FALSE:
		return jumpInstruction(w, op, 1, c, offset)
	case machine.LOOP:
		return jumpInstruction(w, op, -1, c, offset)
	case machine.INVOKE:
		return invokeInstruction(w, op, c, offset)
	case machine.CLOSURE:
		return closureInstruction(w, c, offset)
	default:
		fmt.Fprintln(w, op.String())
		return offset + 1
	}
}

func byteInstruction(w io.Writer, op machine.Opcode, c *machine.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstruction(w io.Writer, op machine.Opcode, c *machine.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 2
}

func jumpInstruction(w io.Writer, op machine.Opcode, sign int, c *machine.Chunk, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func invokeInstruction(w io.Writer, op machine.Opcode, c *machine.Chunk, offset int) int {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, c.Constants[idx].String())
	return offset + 3
}

func closureInstruction(w io.Writer, c *machine.Chunk, offset int) int {
	offset++
	idx := c.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", machine.CLOSURE, idx, c.Constants[idx].String())

	fn := c.Constants[idx].AsFunction()
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		offset += 2
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
