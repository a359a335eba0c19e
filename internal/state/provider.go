package state

// Dependency identifies a slot a computed provider reads: a Facet handle, a
// StateField, or one of the sentinels Doc and Sel. Anything else is
// rejected by the resolver with an INVALID_DEPENDENCY error.
type Dependency any

// observeTag marks the two transaction-level observation sentinels.
type observeTag string

var (
	// Doc declares a dependency on document text changes.
	Doc Dependency = observeTag("doc")

	// Sel declares a dependency on selection changes. Document changes also
	// count: they move the selection's frame of reference.
	Sel Dependency = observeTag("selection")
)

// providerKind discriminates the three provider variants.
type providerKind uint8

const (
	// providerStatic is a literal input.
	providerStatic providerKind = iota
	// providerSingle computes one input from state.
	providerSingle
	// providerMulti computes zero or more inputs from state.
	providerMulti
)

func (k providerKind) String() string {
	switch k {
	case providerStatic:
		return "static"
	case providerSingle:
		return "single"
	case providerMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// provider is a single contribution to a facet. Static providers carry a
// literal value; computed providers carry a dependency list and a getter.
// Multi getters are wrapped to yield []any so the aggregate can splice them
// into the input list without reflection.
type provider struct {
	id    ID
	facet *facetData
	kind  providerKind
	value any
	deps  []Dependency
	get   func(*EditorState) any
}

func (p *provider) extension() {}

func cloneDeps(deps []Dependency) []Dependency {
	if len(deps) == 0 {
		return nil
	}
	out := make([]Dependency, len(deps))
	copy(out, deps)
	return out
}
