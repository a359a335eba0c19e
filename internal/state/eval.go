package state

// ensureAddr forces the slot behind addr to a computed status and returns
// that status. Static addresses are always computed. Idempotent after the
// first success: the total work per transition is at most one evaluation
// per slot, regardless of demand order.
//
// Re-entering a slot that is mid-computation is a cyclic dependency; the
// panic unwinds the in-flight evaluations and is recovered into an error at
// the transition boundary.
func ensureAddr(st *EditorState, addr Address) slotStatus {
	if addr.isStatic() {
		return statusComputed
	}
	idx := addr.index()
	status := st.status[idx]
	if status&statusComputed != 0 {
		return status
	}
	if status == statusComputing {
		panic(&Error{
			Code:    ErrCodeCyclicDependency,
			Message: "slot re-entered while computing",
			Entity:  st.config.dynamicSlots[idx].info().Owner,
		})
	}
	st.status[idx] = statusComputing
	changed := st.config.dynamicSlots[idx].update(st)
	st.status[idx] = statusComputed | changed
	return st.status[idx]
}

// getAddr reads the value behind addr. It does not force evaluation;
// callers arrange ensureAddr first.
func getAddr(st *EditorState, addr Address) any {
	if addr.isStatic() {
		return st.config.staticValues[addr.index()]
	}
	return st.values[addr.index()]
}

// computeAll completes a transition (or initial population) by ensuring
// every dynamic slot in order. Dependencies computed on demand along the
// way make later ensures no-ops.
func (st *EditorState) computeAll() (err error) {
	defer catchCoreError(&err)
	for i := range st.config.dynamicSlots {
		ensureAddr(st, dynamicAddress(i))
	}
	return nil
}
