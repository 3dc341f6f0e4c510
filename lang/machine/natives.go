package machine

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// registerNatives installs the narrow set of host callables spec §6
// describes ("Native built-ins (registered at VM init)"), grounded on
// original_source/clox/vm.c's clock_native/floor_native/rand_native.
func registerNatives(th *Thread) {
	start := time.Now()

	th.DefineNative("clock", 0, func(_ *Thread, _ []Value) (Value, error) {
		return Number(time.Since(start).Seconds()), nil
	})

	th.DefineNative("floor", 1, func(_ *Thread, args []Value) (Value, error) {
		if !args[0].IsNumber() {
			return Nil, fmt.Errorf("floor() argument must be a number")
		}
		return Number(math.Floor(args[0].AsNumber())), nil
	})

	th.DefineNative("random", 0, func(_ *Thread, _ []Value) (Value, error) {
		return Number(rand.Float64()), nil
	})
}
