package machine

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of Value, per spec §3: "A tagged
// union with variants: Nil, Bool(bool), Number(f64), Obj(handle)."
type ValueKind uint8

const (
	NilKind ValueKind = iota
	BoolKind
	NumberKind
	ObjKindTag
)

// Value is the tagged union manipulated by the compiler and the VM. The zero
// Value is Nil.
type Value struct {
	kind   ValueKind
	b      bool
	number float64
	obj    Object
}

// Nil is the sole value of nil type.
var Nil = Value{kind: NilKind}

// Bool returns the Value wrapping b.
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// Number returns the Value wrapping the float64 n.
func Number(n float64) Value { return Value{kind: NumberKind, number: n} }

// ObjValue returns the Value wrapping the heap object o.
func ObjValue(o Object) Value { return Value{kind: ObjKindTag, obj: o} }

func (v Value) IsNil() bool    { return v.kind == NilKind }
func (v Value) IsBool() bool   { return v.kind == BoolKind }
func (v Value) IsNumber() bool { return v.kind == NumberKind }
func (v Value) IsObj() bool    { return v.kind == ObjKindTag }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Object    { return v.obj }

// IsObjKind reports whether v holds a heap object of the given kind.
func (v Value) IsObjKind(k ObjKind) bool {
	return v.kind == ObjKindTag && v.obj.Kind() == k
}

func (v Value) AsString() *StringObj      { return v.obj.(*StringObj) }
func (v Value) AsFunction() *FunctionObj   { return v.obj.(*FunctionObj) }
func (v Value) AsNative() *NativeObj       { return v.obj.(*NativeObj) }
func (v Value) AsClosure() *ClosureObj     { return v.obj.(*ClosureObj) }
func (v Value) AsClass() *ClassObj         { return v.obj.(*ClassObj) }
func (v Value) AsInstance() *InstanceObj   { return v.obj.(*InstanceObj) }
func (v Value) AsBoundMethod() *BoundMethodObj { return v.obj.(*BoundMethodObj) }

// Truth reports whether v is truthy: nil and false are the only falsey
// values (spec §3).
func (v Value) Truth() bool {
	switch v.kind {
	case NilKind:
		return false
	case BoolKind:
		return v.b
	default:
		return true
	}
}

// Equal implements spec §3 value equality: same tag and same payload, except
// objects compare by identity (which, for interned strings, coincides with
// content equality).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case NilKind:
		return true
	case BoolKind:
		return a.b == b.b
	case NumberKind:
		return a.number == b.number
	case ObjKindTag:
		return a.obj == b.obj
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case NilKind:
		return "nil"
	case BoolKind:
		if v.b {
			return "true"
		}
		return "false"
	case NumberKind:
		return formatNumber(v.number)
	case ObjKindTag:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName returns a short diagnostic name for v's type, used in runtime
// error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case NilKind:
		return "nil"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case ObjKindTag:
		return fmt.Sprintf("%s", v.obj.Kind())
	default:
		return "unknown"
	}
}
