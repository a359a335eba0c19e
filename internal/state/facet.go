package state

import "strconv"

// facetData is the identity backing a Facet handle. All configurations that
// mention a facet share one facetData, so the facet's ID is the unit of
// addressing.
type facetData struct {
	id   ID
	name string

	// combine reduces the aggregated provider inputs to the facet output.
	// Called once at definition time with the empty list to memoise the
	// default, and thereafter at each aggregation.
	combine func([]any) any

	// compareInput suppresses provider recomputation.
	compareInput func(any, any) bool

	// compareOutput suppresses change propagation.
	compareOutput func(any, any) bool

	// static facets reject computed providers and resolve entirely at
	// configuration time.
	static bool

	// defaultVal is the memoised combine of the empty input list.
	defaultVal any
}

// facetHandle is implemented by every Facet instantiation so that untyped
// code (the resolver, dependency lists, manifest registries) can recover the
// identity behind a handle.
type facetHandle interface {
	facetData() *facetData
}

// facetDataOf recovers the facet identity behind an opaque handle.
// Returns a MISSING_FACET_DATA error when v is not a facet.
func facetDataOf(v any) (*facetData, error) {
	if h, ok := v.(facetHandle); ok {
		return h.facetData(), nil
	}
	return nil, &Error{
		Code:    ErrCodeMissingFacetData,
		Message: "value has no facet identity",
	}
}

// FacetConfig configures a new facet.
type FacetConfig[I, O any] struct {
	// Name is used in diagnostics and introspection. Optional.
	Name string

	// Combine reduces many inputs to one output. Required; use
	// DefineListFacet when the output should be the input list itself.
	Combine func([]I) O

	// CompareInput avoids provider recomputation when a recomputed input is
	// semantically unchanged. Defaults to identity.
	CompareInput func(I, I) bool

	// CompareOutput suppresses downstream change propagation when the
	// aggregate output is semantically unchanged. Defaults to identity.
	CompareOutput func(O, O) bool

	// Static facets accept only literal provisions and are resolved once
	// per configuration.
	Static bool
}

// Facet is an aggregation point: inputs of type I are collected from
// providers and reduced via the combine rule to a single output of type O.
//
// A Facet value is a cheap, comparable handle; all copies refer to the same
// identity.
type Facet[I, O any] struct {
	data *facetData
}

// DefineFacet binds a new facet identity.
//
// The zero input list is combined eagerly, without observing any state, and
// memoised as the facet's default.
func DefineFacet[I, O any](cfg FacetConfig[I, O]) Facet[I, O] {
	if cfg.Combine == nil {
		panic("state: DefineFacet requires Combine; use DefineListFacet for list facets")
	}
	combine := func(inputs []any) any {
		typed := make([]I, len(inputs))
		for i, v := range inputs {
			typed[i] = v.(I)
		}
		return cfg.Combine(typed)
	}
	data := &facetData{
		id:            newID(),
		name:          cfg.Name,
		combine:       combine,
		compareInput:  wrapCompare(cfg.CompareInput),
		compareOutput: wrapCompare(cfg.CompareOutput),
		static:        cfg.Static,
	}
	data.defaultVal = data.combine(nil)
	return Facet[I, O]{data: data}
}

// ListFacetConfig configures a facet whose output is the input list.
type ListFacetConfig[I any] struct {
	// Name is used in diagnostics and introspection. Optional.
	Name string

	// CompareInput defaults to identity.
	CompareInput func(I, I) bool

	// Static facets accept only literal provisions.
	Static bool
}

// DefineListFacet binds a facet with no reduction rule: the output is the
// list of inputs in aggregation order. The output comparator is pointwise
// identity on the elements, so re-aggregations that produce an equal list
// do not propagate change.
func DefineListFacet[I any](cfg ListFacetConfig[I]) Facet[I, []I] {
	compareInput := wrapCompare(cfg.CompareInput)
	data := &facetData{
		id:   newID(),
		name: cfg.Name,
		combine: func(inputs []any) any {
			out := make([]I, len(inputs))
			for i, v := range inputs {
				out[i] = v.(I)
			}
			return out
		},
		compareInput: compareInput,
		compareOutput: func(a, b any) bool {
			as, aok := a.([]I)
			bs, bok := b.([]I)
			if !aok || !bok || len(as) != len(bs) {
				return false
			}
			for i := range as {
				if !compareInput(as[i], bs[i]) {
					return false
				}
			}
			return true
		},
		static: cfg.Static,
	}
	data.defaultVal = data.combine(nil)
	return Facet[I, []I]{data: data}
}

// wrapCompare lifts a typed comparator to the untyped slot representation,
// falling back to identity when none was supplied.
func wrapCompare[T any](cmp func(T, T) bool) func(any, any) bool {
	if cmp == nil {
		return sameValue
	}
	return func(a, b any) bool {
		at, aok := a.(T)
		bt, bok := b.(T)
		return aok && bok && cmp(at, bt)
	}
}

// facetData implements facetHandle.
func (f Facet[I, O]) facetData() *facetData { return f.data }

// Name returns the facet's diagnostic name, or a generated placeholder.
func (f Facet[I, O]) Name() string { return f.data.label() }

// Default returns the facet's output for an empty provider list.
func (f Facet[I, O]) Default() O { return f.data.defaultVal.(O) }

// Of returns an extension providing the literal value v to this facet.
func (f Facet[I, O]) Of(v I) Extension {
	return &provider{
		id:    newID(),
		facet: f.data,
		kind:  providerStatic,
		value: v,
	}
}

// Compute returns an extension providing one input computed from state.
// deps lists the slots the getter reads: facets, fields, Doc, or Sel.
//
// Panics with a STATIC_FACET_VIOLATION error if the facet is static;
// declaring a computed provider for a static facet is a programmer error.
func (f Facet[I, O]) Compute(deps []Dependency, get func(*EditorState) I) Extension {
	f.data.mustAcceptComputed()
	return &provider{
		id:    newID(),
		facet: f.data,
		kind:  providerSingle,
		deps:  cloneDeps(deps),
		get:   func(st *EditorState) any { return get(st) },
	}
}

// ComputeN returns an extension providing zero or more inputs computed from
// state. deps is as for Compute.
//
// Panics with a STATIC_FACET_VIOLATION error if the facet is static.
func (f Facet[I, O]) ComputeN(deps []Dependency, get func(*EditorState) []I) Extension {
	f.data.mustAcceptComputed()
	return &provider{
		id:    newID(),
		facet: f.data,
		kind:  providerMulti,
		deps:  cloneDeps(deps),
		get: func(st *EditorState) any {
			vs := get(st)
			out := make([]any, len(vs))
			for i, v := range vs {
				out[i] = v
			}
			return out
		},
	}
}

// Get reads the facet's value from a state. A facet with no address in the
// state's configuration yields its default. Reading forces evaluation of
// the facet's slot (and, transitively, its dependencies) when the state is
// mid-transition.
func (f Facet[I, O]) Get(st *EditorState) O {
	addr, ok := st.config.address[f.data.id]
	if !ok {
		return f.data.defaultVal.(O)
	}
	ensureAddr(st, addr)
	return getAddr(st, addr).(O)
}

// Changed reports whether the facet's dynamic slot recorded a change during
// the state's transition. Static facets never change within a
// configuration.
func (f Facet[I, O]) Changed(st *EditorState) bool {
	addr, ok := st.config.address[f.data.id]
	if !ok || addr.isStatic() {
		return false
	}
	return st.status[addr.index()]&statusChanged != 0
}

func (d *facetData) mustAcceptComputed() {
	if d.static {
		panic(&Error{
			Code:    ErrCodeStaticFacetViolation,
			Message: "computed provider targets a static facet",
			Entity:  d.label(),
		})
	}
}

func (d *facetData) label() string {
	if d.name != "" {
		return d.name
	}
	return "facet#" + strconv.FormatUint(uint64(d.id), 10)
}
