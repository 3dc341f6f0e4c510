package machine

// FramesMax bounds the number of nested call frames, per spec §3 invariant
// ("call frames never exceed FRAMES_MAX (64)").
const FramesMax = 64

// StackMax bounds the VM's value stack depth, per spec §3 invariant
// ("FRAMES_MAX × 256").
const StackMax = FramesMax * 256

// CallFrame records one active call to a ClosureObj: its instruction
// pointer and the base slot in the value stack where its locals (starting
// with the callee itself, in slot 0) live.
type CallFrame struct {
	closure *ClosureObj
	ip      int
	slots   int // index into Thread.stack of this frame's slot 0
}
