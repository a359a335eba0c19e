// Package manifest loads declarative editor configurations from CUE.
//
// A manifest names facets, static provisions, and built-in state fields.
// Compilation turns the CUE value into a Spec; Build turns a Spec into a
// live extension tree plus named handles, so the CLI and the scenario
// harness can work with configurations described as data instead of code.
package manifest

// Spec is a compiled manifest, ready to build.
type Spec struct {
	Facets     []FacetDecl
	Provisions []Provision
	Fields     []FieldDecl
}

// FacetDecl declares one named facet.
type FacetDecl struct {
	Name string

	// Input is the provider input type: "int" or "string".
	Input string

	// Combine names the reduction strategy: "first", "last", "sum", "min",
	// "max", "concat", or "list".
	Combine string

	// Static marks the facet as accepting only static provisions.
	Static bool

	// DefaultInt and DefaultString seed the combine result when no provider
	// contributes. Only the one matching Input is consulted.
	DefaultInt    int64
	DefaultString string
}

// Provision is one static value contributed to a named facet.
type Provision struct {
	Facet string
	Value any // int64 or string, per the facet's input type
	Prec  string
}

// FieldDecl declares one built-in state field.
type FieldDecl struct {
	Name string

	// Kind selects the built-in behavior: "changeCount", "docLength", or
	// "selectionHead". All built-in kinds carry int64 values.
	Kind string

	Provides []FieldProvision
}

// FieldProvision routes a field's value into a named facet.
type FieldProvision struct {
	Facet string
	Prec  string
}

// Built-in field kinds.
const (
	KindChangeCount   = "changeCount"
	KindDocLength     = "docLength"
	KindSelectionHead = "selectionHead"
)

// Combine strategies.
const (
	CombineFirst  = "first"
	CombineLast   = "last"
	CombineSum    = "sum"
	CombineMin    = "min"
	CombineMax    = "max"
	CombineConcat = "concat"
	CombineList   = "list"
)
