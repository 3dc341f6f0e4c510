package machine

import "fmt"

// ObjKind tags the concrete representation of a heap Object, mirroring the
// tagged union described by the spec's Object model (§3).
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjNativeKind
	ObjClosureKind
	ObjUpvalueKind
	ObjClassKind
	ObjInstanceKind
	ObjBoundMethodKind
)

func (k ObjKind) String() string {
	switch k {
	case ObjStringKind:
		return "string"
	case ObjFunctionKind:
		return "function"
	case ObjNativeKind:
		return "native"
	case ObjClosureKind:
		return "closure"
	case ObjUpvalueKind:
		return "upvalue"
	case ObjClassKind:
		return "class"
	case ObjInstanceKind:
		return "instance"
	case ObjBoundMethodKind:
		return "bound method"
	default:
		return "unknown"
	}
}

// gcHeader is embedded by every heap object kind. It carries the mark bit and
// the next-pointer that threads the object onto the GC's object list, per
// spec §3 "Object" ("Every heap object begins with a header carrying its
// kind tag, a mark bit, and a next-pointer").
type gcHeader struct {
	kind   ObjKind
	marked bool
	next   Object
}

// Object is implemented by every heap-allocated value kind. Client code
// should not call Header or Blacken directly; they exist for the garbage
// collector.
type Object interface {
	fmt.Stringer
	Header() *gcHeader
	Kind() ObjKind
	// Blacken visits every Value directly reachable from this object and
	// marks it, per the table in spec §4.6 "Marking".
	Blacken(gc *GC)
}

func (h *gcHeader) Header() *gcHeader { return h }
func (h *gcHeader) Kind() ObjKind     { return h.kind }

// StringObj is an immutable, interned byte sequence.
type StringObj struct {
	gcHeader
	Chars string
	Hash  uint32
}

func (s *StringObj) String() string       { return s.Chars }
func (s *StringObj) Blacken(gc *GC)       {} // no outgoing references

// fnvHash computes the 32-bit FNV-1a hash of s, as spec.md §3 requires for
// interned strings.
func fnvHash(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// UpvalueDesc describes a variable captured by a FunctionObj: it records which
// stack slot (or, for enclosing functions, which of their own upvalues)
// supplies the value at closure-creation time.
type UpvalueDesc struct {
	Index   uint8
	IsLocal bool
}

// FunctionObj is the compiled representation of a function body: its arity,
// the upvalues it declares, its owned Chunk, and an optional name (empty for
// the implicit top-level script function).
type FunctionObj struct {
	gcHeader
	Arity        int
	UpvalueCount int
	Upvalues     []UpvalueDesc
	Chunk        Chunk
	Name         *StringObj
}

func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

func (f *FunctionObj) Blacken(gc *GC) {
	if f.Name != nil {
		gc.markObject(f.Name)
	}
	for _, c := range f.Chunk.Constants {
		gc.markValue(c)
	}
}

// NativeFn is a host callable registered through Thread.DefineNative.
type NativeFn func(th *Thread, args []Value) (Value, error)

// NativeObj wraps a host function so it can be called like any other Value.
type NativeObj struct {
	gcHeader
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *NativeObj) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *NativeObj) Blacken(gc *GC) {}

// UpvalueObj is either open (Location points into the VM's value stack) or
// closed (Location points at its own Closed field, which is its sole
// storage from that point on).
type UpvalueObj struct {
	gcHeader
	Location *Value
	Closed   Value
	Next     *UpvalueObj // linked into Thread.openUpvalues while open
	slot     int         // stack index Location aliases, while open
}

func (u *UpvalueObj) String() string { return "upvalue" }
func (u *UpvalueObj) Blacken(gc *GC) { gc.markValue(*u.Location) }

func (u *UpvalueObj) close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
	u.Next = nil
}

// ClosureObj pairs a FunctionObj with the upvalues it captured at creation
// time.
type ClosureObj struct {
	gcHeader
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

func (c *ClosureObj) String() string { return c.Function.String() }
func (c *ClosureObj) Blacken(gc *GC) {
	gc.markObject(c.Function)
	for _, uv := range c.Upvalues {
		gc.markObject(uv)
	}
}

// ClassObj is a class: a name and a method table (name -> ClosureObj,
// wrapped as Values).
type ClassObj struct {
	gcHeader
	Name    *StringObj
	Methods *Table
}

func (c *ClassObj) String() string { return c.Name.Chars }
func (c *ClassObj) Blacken(gc *GC) {
	gc.markObject(c.Name)
	c.Methods.mark(gc)
}

// InstanceObj is an instance of a ClassObj with its own field table.
type InstanceObj struct {
	gcHeader
	Class  *ClassObj
	Fields *Table
}

func (i *InstanceObj) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }
func (i *InstanceObj) Blacken(gc *GC) {
	gc.markObject(i.Class)
	i.Fields.mark(gc)
}

// BoundMethodObj pairs a receiver with the (unbound) method Closure to
// invoke it with.
type BoundMethodObj struct {
	gcHeader
	Receiver Value
	Method   *ClosureObj
}

func (b *BoundMethodObj) String() string { return b.Method.String() }
func (b *BoundMethodObj) Blacken(gc *GC) {
	gc.markValue(b.Receiver)
	gc.markObject(b.Method)
}
