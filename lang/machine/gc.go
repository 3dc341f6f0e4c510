package machine

import (
	"fmt"
	"os"

	"github.com/dolthub/swiss"
)

// gcHeapGrowFactor matches clox's heuristic (spec §4.6): after a
// collection, the next one is triggered once bytesAllocated exceeds twice
// the bytes that survived this collection.
const gcHeapGrowFactor = 2

// internTable maps interned string content to its canonical StringObj. Spec
// §3 calls these "weak references": an entry is pruned by the collector
// after marking but before sweep if its StringObj did not survive marking.
type internTable struct {
	m *swiss.Map[string, *StringObj]
}

func newInternTable() *internTable {
	return &internTable{m: swiss.NewMap[string, *StringObj](64)}
}

// GC is the tracing mark-and-sweep collector described by spec §4.6. It owns
// the heap's object list, the intern table, and the gray worklist used
// during marking. A GC is always owned by exactly one Thread.
type GC struct {
	objects Object // head of the intrusive heap object list
	strings *internTable

	bytesAllocated int64
	nextGC         int64
	gray           []Object

	// Stress forces a collection on every allocation, used to exercise GC
	// soundness independently of allocation pressure (spec §8).
	Stress bool
	// Log, when true, prints collection begin/end and byte counts to stderr,
	// the disassembler-adjacent "developer-mode tracing" spec.md scopes out
	// of Core but keeps as an optional aid (SPEC_FULL.md §2).
	Log bool

	th *Thread

	// compilerRoots, when non-nil, is published by an in-progress Compiler so
	// the collector can mark the chain of not-yet-finished FunctionObj values
	// it is building (spec §4.6 "the compiler's chain of in-flight
	// Functions").
	compilerRoots func(*GC)
}

func newGC(th *Thread) *GC {
	return &GC{
		strings: newInternTable(),
		nextGC:  1 << 20,
		th:      th,
	}
}

// SetCompilerRoots installs (or, with nil, clears) the hook an in-progress
// Compiler uses to publish its own GC roots.
func (gc *GC) SetCompilerRoots(fn func(*GC)) { gc.compilerRoots = fn }

func (gc *GC) link(o Object, kind ObjKind, size int64) {
	h := o.Header()
	h.kind = kind
	h.next = gc.objects
	gc.objects = o
	gc.bytesAllocated += size
}

// maybeCollect triggers a collection if the configured pressure threshold
// (or Stress mode) demands it. Callers must have already anchored any
// not-yet-reachable value they are constructing (spec §4.6 "Safety
// points") before calling this.
func (gc *GC) maybeCollect() {
	if gc.Stress || gc.bytesAllocated > gc.nextGC {
		gc.collect()
	}
}

// NewString interns chars, returning the existing StringObj if an identical
// string already exists, per spec §3 ("Interned: identical contents share
// one heap object").
func (gc *GC) NewString(chars string) *StringObj {
	if s, ok := gc.strings.m.Get(chars); ok {
		return s
	}
	s := &StringObj{Chars: chars, Hash: fnvHash(chars)}
	gc.link(s, ObjStringKind, int64(len(chars))+32)
	if gc.th != nil {
		gc.th.push(ObjValue(s))
	}
	gc.strings.m.Put(chars, s)
	gc.maybeCollect()
	if gc.th != nil {
		gc.th.pop()
	}
	return s
}

func (gc *GC) NewFunction() *FunctionObj {
	f := &FunctionObj{}
	gc.link(f, ObjFunctionKind, 64)
	gc.maybeCollect()
	return f
}

func (gc *GC) NewNative(name string, arity int, fn NativeFn) *NativeObj {
	n := &NativeObj{Name: name, Arity: arity, Fn: fn}
	gc.link(n, ObjNativeKind, 32)
	gc.maybeCollect()
	return n
}

func (gc *GC) NewClosure(fn *FunctionObj) *ClosureObj {
	c := &ClosureObj{Function: fn, Upvalues: make([]*UpvalueObj, fn.UpvalueCount)}
	gc.link(c, ObjClosureKind, int64(24+8*fn.UpvalueCount))
	if gc.th != nil {
		gc.th.push(ObjValue(c))
	}
	gc.maybeCollect()
	if gc.th != nil {
		gc.th.pop()
	}
	return c
}

func (gc *GC) NewUpvalue(loc *Value, slot int) *UpvalueObj {
	u := &UpvalueObj{Location: loc, slot: slot}
	gc.link(u, ObjUpvalueKind, 24)
	gc.maybeCollect()
	return u
}

func (gc *GC) NewClass(name *StringObj) *ClassObj {
	c := &ClassObj{Name: name, Methods: NewTable(8)}
	gc.link(c, ObjClassKind, 32)
	if gc.th != nil {
		gc.th.push(ObjValue(c))
	}
	gc.maybeCollect()
	if gc.th != nil {
		gc.th.pop()
	}
	return c
}

func (gc *GC) NewInstance(class *ClassObj) *InstanceObj {
	i := &InstanceObj{Class: class, Fields: NewTable(8)}
	gc.link(i, ObjInstanceKind, 32)
	if gc.th != nil {
		gc.th.push(ObjValue(i))
	}
	gc.maybeCollect()
	if gc.th != nil {
		gc.th.pop()
	}
	return i
}

func (gc *GC) NewBoundMethod(receiver Value, method *ClosureObj) *BoundMethodObj {
	b := &BoundMethodObj{Receiver: receiver, Method: method}
	gc.link(b, ObjBoundMethodKind, 32)
	gc.maybeCollect()
	return b
}

// ConcatStrings interns the concatenation of a and b. If an identical string
// already exists in the intern table, the freshly built buffer is discarded
// (the "take_string" behavior spec §4.5 "Arithmetic" describes).
func (gc *GC) ConcatStrings(a, b *StringObj) *StringObj {
	return gc.NewString(a.Chars + b.Chars)
}

func (gc *GC) markValue(v Value) {
	if v.kind == ObjKindTag && v.obj != nil {
		gc.markObject(v.obj)
	}
}

func (gc *GC) markObject(o Object) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.marked {
		return
	}
	h.marked = true
	gc.gray = append(gc.gray, o)
}

// collect runs one full mark-and-sweep cycle.
func (gc *GC) collect() {
	if gc.Log {
		fmt.Fprintf(os.Stderr, "-- gc begin (%d bytes)\n", gc.bytesAllocated)
	}

	gc.markRoots()
	gc.traceReferences()
	gc.pruneInternTable()
	before := gc.bytesAllocated
	gc.sweep()
	gc.nextGC = clampMin(gc.bytesAllocated*gcHeapGrowFactor, int64(1<<16))

	if gc.Log {
		fmt.Fprintf(os.Stderr, "-- gc end (%d -> %d bytes, next at %d)\n", before, gc.bytesAllocated, gc.nextGC)
	}
}

func (gc *GC) markRoots() {
	if gc.th != nil {
		gc.th.markRoots(gc)
	}
	if gc.compilerRoots != nil {
		gc.compilerRoots(gc)
	}
}

func (gc *GC) traceReferences() {
	for len(gc.gray) > 0 {
		n := len(gc.gray) - 1
		o := gc.gray[n]
		gc.gray = gc.gray[:n]
		o.Blacken(gc)
	}
}

// pruneInternTable deletes intern-table entries whose StringObj did not
// survive marking, per spec §4.6 "Intern-table weak refs": this is the only
// point where interned strings may be removed.
func (gc *GC) pruneInternTable() {
	var dead []string
	gc.strings.m.Iter(func(k string, s *StringObj) bool {
		if !s.Header().marked {
			dead = append(dead, k)
		}
		return false
	})
	for _, k := range dead {
		gc.strings.m.Delete(k)
	}
}

func (gc *GC) sweep() {
	var prev Object
	obj := gc.objects
	for obj != nil {
		h := obj.Header()
		if h.marked {
			h.marked = false
			prev = obj
			obj = h.next
			continue
		}
		unreached := obj
		obj = h.next
		if prev != nil {
			prev.Header().next = obj
		} else {
			gc.objects = obj
		}
		gc.bytesAllocated -= sizeOf(unreached)
	}
}

// sizeOf approximates the byte cost of an object kind for accounting
// purposes, mirroring the sizes used at allocation time.
func sizeOf(o Object) int64 {
	switch v := o.(type) {
	case *StringObj:
		return int64(len(v.Chars)) + 32
	case *FunctionObj:
		return 64
	case *NativeObj:
		return 32
	case *ClosureObj:
		return int64(24 + 8*len(v.Upvalues))
	case *UpvalueObj:
		return 24
	case *ClassObj:
		return 32
	case *InstanceObj:
		return 32
	case *BoundMethodObj:
		return 32
	default:
		return 16
	}
}

// LiveObjects counts the objects currently threaded onto the heap list, for
// tests asserting GC soundness (spec §8).
func (gc *GC) LiveObjects() int {
	n := 0
	for o := gc.objects; o != nil; o = o.Header().next {
		n++
	}
	return n
}
