package state

// dynamicSlot is one entry in a configuration's dynamic evaluation plan.
// update writes the slot's value into st.values and returns statusChanged
// or 0. Slots are tagged variants rather than opaque closures so the plan
// can be inspected.
type dynamicSlot interface {
	update(st *EditorState) slotStatus
	info() SlotInfo
}

// SlotInfo describes one dynamic slot for introspection.
type SlotInfo struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`  // "field" | "provider" | "aggregate"
	Owner string `json:"owner"` // owning field or facet label
}

// fieldSlot evaluates a state field.
//
// In a fresh state, or after a reconfiguration that introduced the field,
// the slot runs create. Otherwise it updates the previous state's value; a
// compare-equal result carries the old value forward and reports no change.
type fieldSlot struct {
	field *fieldBase
	idx   int
}

func (s *fieldSlot) update(st *EditorState) slotStatus {
	tr := st.applying
	if tr != nil {
		if oldAddr, ok := tr.startState.config.address[s.field.id]; ok {
			oldVal := getAddr(tr.startState, oldAddr)
			newVal := s.field.update(oldVal, tr)
			if s.field.compare(oldVal, newVal) {
				st.values[s.idx] = oldVal
				return 0
			}
			st.values[s.idx] = newVal
			return statusChanged
		}
	}
	st.values[s.idx] = s.field.create(st)
	return statusChanged
}

func (s *fieldSlot) info() SlotInfo {
	return SlotInfo{Index: s.idx, Kind: "field", Owner: s.field.label()}
}

// providerSlot evaluates a computed (single or multi) provider.
//
// Observation flags and dynamic dependency addresses are resolved at
// configuration time; static dependency addresses contribute nothing, since
// they cannot change within a configuration.
type providerSlot struct {
	p   *provider
	idx int

	depDoc   bool
	depSel   bool
	depAddrs []Address
}

func (s *providerSlot) update(st *EditorState) slotStatus {
	tr := st.applying
	if tr == nil || tr.Reconfigured {
		st.values[s.idx] = s.p.get(st)
		return statusChanged
	}

	depChanged := s.depDoc && tr.DocChanged ||
		s.depSel && (tr.DocChanged || tr.SelectionSet)
	if !depChanged {
		for _, a := range s.depAddrs {
			if ensureAddr(st, a)&statusChanged != 0 {
				depChanged = true
				break
			}
		}
	}

	// Same configuration as the start state, so the slot index carries over.
	oldVal := tr.startState.values[s.idx]
	if !depChanged {
		st.values[s.idx] = oldVal
		return 0
	}

	newVal := s.p.get(st)
	same := false
	if s.p.kind == providerMulti {
		newList, nok := newVal.([]any)
		oldList, ook := oldVal.([]any)
		same = nok && ook && sameInputs(newList, oldList, s.p.facet.compareInput)
	} else {
		same = s.p.facet.compareInput(newVal, oldVal)
	}
	if same {
		st.values[s.idx] = oldVal
		return 0
	}
	st.values[s.idx] = newVal
	return statusChanged
}

func (s *providerSlot) info() SlotInfo {
	return SlotInfo{Index: s.idx, Kind: "provider", Owner: s.p.facet.label()}
}

// providerRef locates one provider's resolved slot for aggregation.
type providerRef struct {
	addr  Address
	multi bool
}

// aggregateSlot evaluates a facet's reduction over its providers.
//
// The aggregate recomputes when any dynamic provider slot changed (always,
// in a fresh or reconfigured state). A compareOutput-equal result carries
// the previous output instance forward and reports no change, which is what
// stops recomputation cascading past semantically stable facets.
type aggregateSlot struct {
	facet     *facetData
	idx       int
	providers []providerRef
}

func (s *aggregateSlot) update(st *EditorState) slotStatus {
	tr := st.applying
	changed := tr == nil || tr.Reconfigured
	if !changed {
		for _, pr := range s.providers {
			if !pr.addr.isStatic() && ensureAddr(st, pr.addr)&statusChanged != 0 {
				changed = true
				break
			}
		}
	}
	if !changed {
		st.values[s.idx] = tr.startState.values[s.idx]
		return 0
	}

	inputs := make([]any, 0, len(s.providers))
	for _, pr := range s.providers {
		ensureAddr(st, pr.addr)
		v := getAddr(st, pr.addr)
		if pr.multi {
			inputs = append(inputs, v.([]any)...)
		} else {
			inputs = append(inputs, v)
		}
	}
	out := s.facet.combine(inputs)

	if tr != nil {
		if oldAddr, ok := tr.startState.config.address[s.facet.id]; ok {
			oldOut := getAddr(tr.startState, oldAddr)
			if s.facet.compareOutput(out, oldOut) {
				st.values[s.idx] = oldOut
				return 0
			}
		}
	}
	st.values[s.idx] = out
	return statusChanged
}

func (s *aggregateSlot) info() SlotInfo {
	return SlotInfo{Index: s.idx, Kind: "aggregate", Owner: s.facet.label()}
}
