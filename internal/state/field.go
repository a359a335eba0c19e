package state

import "strconv"

// fieldBase is the untyped core of a state field. Decorated copies produced
// by Provide and ProvideMulti share the ID and the three core functions;
// only the attached extension list differs. A field identity is singular
// within a configuration regardless of how many decorated copies mention it.
type fieldBase struct {
	id   ID
	name string

	create  func(*EditorState) any
	update  func(any, *Transaction) any
	compare func(any, any) bool

	// provides lists facet providers derived from this field. They are
	// flattened at the field's effective precedence.
	provides []Extension
}

func (b *fieldBase) label() string {
	if b.name != "" {
		return b.name
	}
	return "field#" + strconv.FormatUint(uint64(b.id), 10)
}

// FieldSpec configures a new state field.
type FieldSpec[V any] struct {
	// Name is used in diagnostics and introspection. Optional.
	Name string

	// Create produces the field's value for a fresh state. Required.
	Create func(*EditorState) V

	// Update produces the field's value for the state a transaction leads
	// to. The in-flight state is reachable via Transaction.State. Required.
	Update func(V, *Transaction) V

	// Compare suppresses change propagation when an update returns a
	// semantically equal value. Defaults to identity.
	Compare func(V, V) bool
}

// StateField is a named value initialised once per state and updated per
// transaction. Fields are always dynamic.
//
// A StateField value is a cheap, comparable handle. Handles returned by
// Provide and ProvideMulti are distinct extension values sharing one field
// identity.
type StateField[V any] struct {
	base *fieldBase
}

// DefineField binds a new state field with an empty attached-extension
// list.
func DefineField[V any](spec FieldSpec[V]) StateField[V] {
	if spec.Create == nil || spec.Update == nil {
		panic("state: DefineField requires Create and Update")
	}
	return StateField[V]{base: &fieldBase{
		id:   newID(),
		name: spec.Name,
		create: func(st *EditorState) any {
			return spec.Create(st)
		},
		update: func(v any, tr *Transaction) any {
			return spec.Update(v.(V), tr)
		},
		compare: wrapCompare(spec.Compare),
	}}
}

func (sf StateField[V]) extension() {}

// fieldData implements fieldExtension.
func (sf StateField[V]) fieldData() *fieldBase { return sf.base }

// Name returns the field's diagnostic name, or a generated placeholder.
func (sf StateField[V]) Name() string { return sf.base.label() }

// Get reads the field's value from a state. Panics if the field is not part
// of the state's configuration; use Lookup to probe.
func (sf StateField[V]) Get(st *EditorState) V {
	v, ok := sf.Lookup(st)
	if !ok {
		panic("state: field " + sf.base.label() + " is not present in this configuration")
	}
	return v
}

// Lookup reads the field's value from a state, reporting whether the field
// is part of the state's configuration. Reading forces evaluation of the
// field's slot when the state is mid-transition.
func (sf StateField[V]) Lookup(st *EditorState) (V, bool) {
	addr, ok := st.config.address[sf.base.id]
	if !ok {
		var zero V
		return zero, false
	}
	ensureAddr(st, addr)
	return getAddr(st, addr).(V), true
}

// Changed reports whether the field's slot recorded a change during the
// state's transition.
func (sf StateField[V]) Changed(st *EditorState) bool {
	addr, ok := st.config.address[sf.base.id]
	if !ok {
		return false
	}
	return st.status[addr.index()]&statusChanged != 0
}

// withProvider returns a decorated copy sharing the field identity, with
// ext appended to the attached list.
func (sf StateField[V]) withProvider(ext Extension) StateField[V] {
	attached := make([]Extension, 0, len(sf.base.provides)+1)
	attached = append(attached, sf.base.provides...)
	attached = append(attached, ext)
	next := *sf.base
	next.provides = attached
	return StateField[V]{base: &next}
}

// Provide returns a copy of field that additionally provides one input to
// facet, derived from the field's value. The provider depends on the field
// and inherits the field's effective precedence unless prec is given.
//
// Free function rather than method: Go methods cannot introduce the
// facet's type parameters.
func Provide[V, I, O any](field StateField[V], facet Facet[I, O], get func(V) I, prec ...Precedence) StateField[V] {
	ext := facet.Compute([]Dependency{field}, func(st *EditorState) I {
		return get(field.Get(st))
	})
	return field.withProvider(applyPrec(ext, prec))
}

// ProvideMulti is Provide for zero-or-more inputs.
func ProvideMulti[V, I, O any](field StateField[V], facet Facet[I, O], get func(V) []I, prec ...Precedence) StateField[V] {
	ext := facet.ComputeN([]Dependency{field}, func(st *EditorState) []I {
		return get(field.Get(st))
	})
	return field.withProvider(applyPrec(ext, prec))
}

func applyPrec(ext Extension, prec []Precedence) Extension {
	if len(prec) == 0 {
		return ext
	}
	return prec[0].Set(ext)
}
