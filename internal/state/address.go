package state

// Address locates a slot. The low bit is the kind tag: 0 means dynamic (the
// upper bits index the per-state value and status vectors), 1 means static
// (the upper bits index the configuration's static value list). The
// encoding is an invariant shared by the resolver and the evaluator.
type Address uint32

const addrStaticBit Address = 1

func dynamicAddress(idx int) Address { return Address(idx) << 1 }
func staticAddress(idx int) Address  { return Address(idx)<<1 | addrStaticBit }

func (a Address) isStatic() bool { return a&addrStaticBit != 0 }
func (a Address) index() int     { return int(a >> 1) }

// slotStatus tracks the lifecycle of a dynamic slot within one transition.
//
// A slot's value is meaningful iff its status has statusComputed set.
// statusComputing is held during exactly the span of one slot evaluation;
// observing it at entry signals a cyclic dependency.
type slotStatus uint8

const (
	statusUninitialized slotStatus = 0
	statusChanged       slotStatus = 1
	statusComputed      slotStatus = 2
	statusComputing     slotStatus = 4
)
