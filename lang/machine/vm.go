package machine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// InterpretResult mirrors spec §6's three-way Interpret status.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// Thread is the VM: call frames, the value stack, globals, the open-upvalue
// list, and the garbage collector, all owned together the way spec §5
// "Shared resources" permits ("an implementation may scope it to an owned
// value" rather than a process-wide singleton).
type Thread struct {
	Stdout io.Writer
	Stderr io.Writer

	gc *GC

	stack    [StackMax]Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	globals      *Table
	openUpvalues *UpvalueObj

	initString *StringObj
}

// NewThread creates a ready-to-use Thread with its own heap, globals table,
// and natives registered (spec §6 "Native built-ins").
func NewThread() *Thread {
	th := &Thread{Stdout: os.Stdout, Stderr: os.Stderr}
	th.gc = newGC(th)
	th.globals = NewTable(16)
	th.initString = th.gc.NewString("init")
	registerNatives(th)
	return th
}

// GC exposes the thread's collector, mainly so the compiler can publish its
// in-progress root set and so tests can force collections.
func (th *Thread) GC() *GC { return th.gc }

func (th *Thread) push(v Value) {
	th.stack[th.stackTop] = v
	th.stackTop++
}

func (th *Thread) pop() Value {
	th.stackTop--
	return th.stack[th.stackTop]
}

func (th *Thread) peek(distance int) Value {
	return th.stack[th.stackTop-1-distance]
}

func (th *Thread) resetStack() {
	th.stackTop = 0
	th.frameCount = 0
	th.openUpvalues = nil
}

// DefineNative registers a native callable under name, following the
// push/pop anchoring discipline of spec §4.6 "Safety points" (the name and
// the not-yet-reachable NativeObj are both anchored on the stack while the
// globals table may itself grow).
func (th *Thread) DefineNative(name string, arity int, fn NativeFn) {
	th.push(ObjValue(th.gc.NewString(name)))
	th.push(ObjValue(th.gc.NewNative(name, arity, fn)))
	th.globals.Set(th.stack[0].AsString().Chars, th.stack[1])
	th.pop()
	th.pop()
}

// Interpret compiles and runs source, matching spec §6's interpret entry
// point. compileFn performs the single-pass compile (injected to avoid an
// import cycle between machine and compiler); it must return a top-level
// FunctionObj built against th's heap, or an error.
func (th *Thread) Interpret(source []byte, compileFn func(*Thread, []byte) (*FunctionObj, error)) InterpretResult {
	fn, err := compileFn(th, source)
	if err != nil {
		fmt.Fprintln(th.Stderr, err)
		return InterpretCompileError
	}

	th.push(ObjValue(fn))
	closure := th.gc.NewClosure(fn)
	th.pop()
	th.push(ObjValue(closure))
	th.callClosure(closure, 0)

	if err := th.run(); err != nil {
		fmt.Fprintln(th.Stderr, err)
		return InterpretRuntimeError
	}
	return InterpretOK
}

// markRoots marks every Value and Object reachable directly from the
// thread's own state, per spec §4.6 "Roots".
func (th *Thread) markRoots(gc *GC) {
	for i := 0; i < th.stackTop; i++ {
		gc.markValue(th.stack[i])
	}
	for i := 0; i < th.frameCount; i++ {
		gc.markObject(th.frames[i].closure)
	}
	for uv := th.openUpvalues; uv != nil; uv = uv.Next {
		gc.markObject(uv)
	}
	th.globals.mark(gc)
	gc.markObject(th.initString)
}

func (th *Thread) runtimeError(format string, args ...interface{}) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, format, args...)
	sb.WriteByte('\n')
	for i := th.frameCount - 1; i >= 0; i-- {
		fr := &th.frames[i]
		fn := fr.closure.Function
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[fr.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		fmt.Fprintf(&sb, "[line %d] in %s\n", line, name)
	}
	th.resetStack()
	return errors.New(strings.TrimRight(sb.String(), "\n"))
}

// callValue implements spec §4.5 "Call protocol".
func (th *Thread) callValue(callee Value, argCount int) error {
	if callee.IsObj() {
		switch callee.AsObj().Kind() {
		case ObjClosureKind:
			return th.callClosure(callee.AsClosure(), argCount)
		case ObjNativeKind:
			return th.callNative(callee.AsNative(), argCount)
		case ObjClassKind:
			return th.callClass(callee.AsClass(), argCount)
		case ObjBoundMethodKind:
			bound := callee.AsBoundMethod()
			th.stack[th.stackTop-argCount-1] = bound.Receiver
			return th.callClosure(bound.Method, argCount)
		}
	}
	return th.runtimeError("Can only call functions and classes.")
}

func (th *Thread) callClosure(closure *ClosureObj, argCount int) error {
	if argCount != closure.Function.Arity {
		return th.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if th.frameCount == FramesMax {
		return th.runtimeError("Stack overflow.")
	}
	fr := &th.frames[th.frameCount]
	th.frameCount++
	fr.closure = closure
	fr.ip = 0
	fr.slots = th.stackTop - argCount - 1
	return nil
}

func (th *Thread) callNative(native *NativeObj, argCount int) error {
	if argCount != native.Arity {
		return th.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
	}
	args := th.stack[th.stackTop-argCount : th.stackTop]
	result, err := native.Fn(th, args)
	if err != nil {
		return th.runtimeError("%s", err)
	}
	th.stackTop -= argCount + 1
	th.push(result)
	return nil
}

func (th *Thread) callClass(class *ClassObj, argCount int) error {
	inst := th.gc.NewInstance(class)
	th.stack[th.stackTop-argCount-1] = ObjValue(inst)
	if initializer, ok := class.Methods.Get(th.initString.Chars); ok {
		return th.callClosure(initializer.AsClosure(), argCount)
	}
	if argCount != 0 {
		return th.runtimeError("Expected 0 arguments but got %d.", argCount)
	}
	return nil
}

// bindMethod looks up name in class's method table, wraps it with receiver
// as a BoundMethodObj, and replaces the top of stack (the instance) with it.
func (th *Thread) bindMethod(class *ClassObj, name string) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return th.runtimeError("Undefined property '%s'.", name)
	}
	bound := th.gc.NewBoundMethod(th.peek(0), method.AsClosure())
	th.pop()
	th.push(ObjValue(bound))
	return nil
}

// invokeFromClass combines a property lookup and a call, for the INVOKE
// opcode (spec §4.4 "combined get-property + call on instance").
func (th *Thread) invokeFromClass(class *ClassObj, name string, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return th.runtimeError("Undefined property '%s'.", name)
	}
	return th.callClosure(method.AsClosure(), argCount)
}

func (th *Thread) invoke(name string, argCount int) error {
	receiver := th.peek(argCount)
	if !receiver.IsObjKind(ObjInstanceKind) {
		return th.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()
	if field, ok := instance.Fields.Get(name); ok {
		th.stack[th.stackTop-argCount-1] = field
		return th.callValue(field, argCount)
	}
	return th.invokeFromClass(instance.Class, name, argCount)
}

// captureUpvalue returns the existing open upvalue for loc if one exists,
// else creates and links a new one, keeping the open list sorted by
// descending stack-slot address (spec §3 "Upvalue").
func (th *Thread) captureUpvalue(localIndex int) *UpvalueObj {
	var prev *UpvalueObj
	uv := th.openUpvalues
	for uv != nil && uv.slot > localIndex {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.slot == localIndex {
		return uv
	}

	created := th.gc.NewUpvalue(&th.stack[localIndex], localIndex)
	created.Next = uv
	if prev == nil {
		th.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose tracked slot is >= last,
// migrating its value from the stack into its own Closed field (spec §4.5
// "Upvalue handling").
func (th *Thread) closeUpvalues(last int) {
	for th.openUpvalues != nil && th.openUpvalues.slot >= last {
		uv := th.openUpvalues
		uv.close()
		th.openUpvalues = uv.Next
	}
}

func isStringValue(v Value) bool { return v.IsObjKind(ObjStringKind) }

// run executes the bytecode of the active call frame(s) until the
// outermost frame returns or a runtime error occurs (spec §4.5
// "Dispatch").
func (th *Thread) run() error {
	fr := &th.frames[th.frameCount-1]

	readByte := func() byte {
		b := fr.closure.Function.Chunk.Code[fr.ip]
		fr.ip++
		return b
	}
	readShort := func() int {
		hi := fr.closure.Function.Chunk.Code[fr.ip]
		lo := fr.closure.Function.Chunk.Code[fr.ip+1]
		fr.ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() Value {
		return fr.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() string {
		return readConstant().AsString().Chars
	}

	for {
		op := Opcode(readByte())
		switch op {
		case CONSTANT:
			th.push(readConstant())

		case NIL:
			th.push(Nil)
		case TRUE:
			th.push(Bool(true))
		case FALSE:
			th.push(Bool(false))

		case POP:
			th.pop()

		case GET_LOCAL:
			slot := int(readByte())
			th.push(th.stack[fr.slots+slot])
		case SET_LOCAL:
			slot := int(readByte())
			th.stack[fr.slots+slot] = th.peek(0)

		case GET_GLOBAL:
			name := readString()
			v, ok := th.globals.Get(name)
			if !ok {
				return th.runtimeError("Undefined variable '%s'.", name)
			}
			th.push(v)
		case DEFINE_GLOBAL:
			name := readString()
			th.globals.Set(name, th.peek(0))
			th.pop()
		case SET_GLOBAL:
			name := readString()
			if _, ok := th.globals.Get(name); !ok {
				return th.runtimeError("Undefined variable '%s'.", name)
			}
			th.globals.Set(name, th.peek(0))

		case GET_UPVALUE:
			slot := int(readByte())
			th.push(*fr.closure.Upvalues[slot].Location)
		case SET_UPVALUE:
			slot := int(readByte())
			*fr.closure.Upvalues[slot].Location = th.peek(0)

		case GET_PROPERTY:
			name := readString()
			if !th.peek(0).IsObjKind(ObjInstanceKind) {
				return th.runtimeError("Only instances have properties.")
			}
			instance := th.peek(0).AsInstance()
			if v, ok := instance.Fields.Get(name); ok {
				th.pop()
				th.push(v)
				break
			}
			if err := th.bindMethod(instance.Class, name); err != nil {
				return err
			}
		case SET_PROPERTY:
			name := readString()
			if !th.peek(1).IsObjKind(ObjInstanceKind) {
				return th.runtimeError("Only instances have fields.")
			}
			instance := th.peek(1).AsInstance()
			instance.Fields.Set(name, th.peek(0))
			v := th.pop()
			th.pop()
			th.push(v)

		case EQUAL:
			b := th.pop()
			a := th.pop()
			th.push(Bool(Equal(a, b)))
		case GREATER, LESS:
			b := th.peek(0)
			a := th.peek(1)
			if !a.IsNumber() || !b.IsNumber() {
				return th.runtimeError("Operands must be numbers.")
			}
			th.pop()
			th.pop()
			if op == GREATER {
				th.push(Bool(a.AsNumber() > b.AsNumber()))
			} else {
				th.push(Bool(a.AsNumber() < b.AsNumber()))
			}

		case ADD:
			b := th.peek(0)
			a := th.peek(1)
			switch {
			case isStringValue(a) && isStringValue(b):
				th.pop()
				th.pop()
				th.push(ObjValue(th.gc.ConcatStrings(a.AsString(), b.AsString())))
			case a.IsNumber() && b.IsNumber():
				th.pop()
				th.pop()
				th.push(Number(a.AsNumber() + b.AsNumber()))
			default:
				return th.runtimeError("Operands must be two numbers or two strings.")
			}
		case SUBTRACT, MULTIPLY, DIVIDE:
			b := th.peek(0)
			a := th.peek(1)
			if !a.IsNumber() || !b.IsNumber() {
				return th.runtimeError("Operands must be numbers.")
			}
			th.pop()
			th.pop()
			switch op {
			case SUBTRACT:
				th.push(Number(a.AsNumber() - b.AsNumber()))
			case MULTIPLY:
				th.push(Number(a.AsNumber() * b.AsNumber()))
			case DIVIDE:
				th.push(Number(a.AsNumber() / b.AsNumber()))
			}

		case NOT:
			th.stack[th.stackTop-1] = Bool(!th.peek(0).Truth())
		case NEGATE:
			if !th.peek(0).IsNumber() {
				return th.runtimeError("Operand must be a number.")
			}
			th.stack[th.stackTop-1] = Number(-th.peek(0).AsNumber())

		case PRINT:
			fmt.Fprintln(th.Stdout, th.pop().String())

		case JUMP:
			offset := readShort()
			fr.ip += offset
		case JUMP_IF_FALSE:
			offset := readShort()
			if !th.peek(0).Truth() {
				fr.ip += offset
			}
		case LOOP:
			offset := readShort()
			fr.ip -= offset

		case CALL:
			argCount := int(readByte())
			if err := th.callValue(th.peek(argCount), argCount); err != nil {
				return err
			}
			fr = &th.frames[th.frameCount-1]

		case INVOKE:
			name := readString()
			argCount := int(readByte())
			if err := th.invoke(name, argCount); err != nil {
				return err
			}
			fr = &th.frames[th.frameCount-1]

		case CLOSURE:
			fn := readConstant().AsFunction()
			closure := th.gc.NewClosure(fn)
			th.push(ObjValue(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = th.captureUpvalue(fr.slots + index)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}

		case CLOSE_UPVALUE:
			th.closeUpvalues(th.stackTop - 1)
			th.pop()

		case RETURN:
			result := th.pop()
			th.closeUpvalues(fr.slots)
			th.frameCount--
			if th.frameCount == 0 {
				th.pop()
				return nil
			}
			th.stackTop = fr.slots
			th.push(result)
			fr = &th.frames[th.frameCount-1]

		case CLASS:
			th.push(ObjValue(th.gc.NewClass(readConstant().AsString())))
		case METHOD:
			name := readString()
			method := th.peek(0)
			class := th.peek(1)
			class.AsClass().Methods.Set(name, method)
			th.pop()

		default:
			return th.runtimeError("unknown opcode %d", op)
		}
	}
}
