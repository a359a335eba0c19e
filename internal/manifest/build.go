package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/prism/internal/state"
)

// Program is a built manifest: the combined extension tree plus named
// handles for every declared facet and field. Handles are what the CLI and
// the scenario harness use to read values back out of states built from
// the program.
type Program struct {
	Extension state.Extension

	facets map[string]builtFacet
	fields map[string]builtField
}

// builtFacet erases the facet's value types behind closures so Program can
// hold int, string, and list facets in one map.
type builtFacet struct {
	decl     FacetDecl
	handle   any
	of       func(v any) state.Extension
	provide  func(f state.StateField[int64], prec state.Precedence) state.StateField[int64]
	snapshot func(st *state.EditorState) (any, error)
	changed  func(st *state.EditorState) bool
}

type builtField struct {
	decl  FieldDecl
	field state.StateField[int64]
}

// Build constructs the live extension tree for a compiled manifest.
func Build(spec *Spec) (*Program, error) {
	prog := &Program{
		facets: make(map[string]builtFacet, len(spec.Facets)),
		fields: make(map[string]builtField, len(spec.Fields)),
	}

	for _, decl := range spec.Facets {
		if _, dup := prog.facets[decl.Name]; dup {
			return nil, fmt.Errorf("duplicate facet %q", decl.Name)
		}
		prog.facets[decl.Name] = buildFacet(decl)
	}

	var exts []state.Extension

	for _, decl := range spec.Fields {
		if _, dup := prog.fields[decl.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", decl.Name)
		}
		field := buildField(decl)
		for _, fp := range decl.Provides {
			target := prog.facets[fp.Facet]
			if target.decl.Static {
				return nil, fmt.Errorf("field %q cannot provide into static facet %q", decl.Name, fp.Facet)
			}
			field = target.provide(field, parsePrec(fp.Prec))
		}
		prog.fields[decl.Name] = builtField{decl: decl, field: field}
		exts = append(exts, field)
	}

	for _, prov := range spec.Provisions {
		target := prog.facets[prov.Facet]
		exts = append(exts, parsePrec(prov.Prec).Set(target.of(prov.Value)))
	}

	prog.Extension = state.Extensions(exts...)
	return prog, nil
}

func buildFacet(decl FacetDecl) builtFacet {
	switch {
	case decl.Input == "int" && decl.Combine == CombineList:
		f := state.DefineListFacet[int64](state.ListFacetConfig[int64]{Name: decl.Name})
		return builtFacet{
			decl:   decl,
			handle: f,
			of:     func(v any) state.Extension { return f.Of(v.(int64)) },
			provide: func(sf state.StateField[int64], prec state.Precedence) state.StateField[int64] {
				return state.Provide(sf, f, func(v int64) int64 { return v }, prec)
			},
			snapshot: listSnapshot[int64](f),
			changed:  f.Changed,
		}
	case decl.Input == "string" && decl.Combine == CombineList:
		f := state.DefineListFacet[string](state.ListFacetConfig[string]{Name: decl.Name})
		return builtFacet{
			decl:     decl,
			handle:   f,
			of:       func(v any) state.Extension { return f.Of(v.(string)) },
			snapshot: listSnapshot[string](f),
			changed:  f.Changed,
		}
	case decl.Input == "int":
		f := state.DefineFacet[int64, int64](state.FacetConfig[int64, int64]{
			Name:    decl.Name,
			Combine: intCombine(decl),
			Static:  decl.Static,
		})
		return builtFacet{
			decl:   decl,
			handle: f,
			of:     func(v any) state.Extension { return f.Of(v.(int64)) },
			provide: func(sf state.StateField[int64], prec state.Precedence) state.StateField[int64] {
				return state.Provide(sf, f, func(v int64) int64 { return v }, prec)
			},
			snapshot: func(st *state.EditorState) (any, error) { return st.FacetByHandle(f) },
			changed:  f.Changed,
		}
	default:
		f := state.DefineFacet[string, string](state.FacetConfig[string, string]{
			Name:    decl.Name,
			Combine: stringCombine(decl),
			Static:  decl.Static,
		})
		return builtFacet{
			decl:     decl,
			handle:   f,
			of:       func(v any) state.Extension { return f.Of(v.(string)) },
			snapshot: func(st *state.EditorState) (any, error) { return st.FacetByHandle(f) },
			changed:  f.Changed,
		}
	}
}

// listSnapshot reads a list facet and widens the slice for canonical JSON.
func listSnapshot[I any](f state.Facet[I, []I]) func(*state.EditorState) (any, error) {
	return func(st *state.EditorState) (any, error) {
		v, err := st.FacetByHandle(f)
		if err != nil {
			return nil, err
		}
		typed := v.([]I)
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = elem
		}
		return out, nil
	}
}

func intCombine(decl FacetDecl) func([]int64) int64 {
	switch decl.Combine {
	case CombineLast:
		return func(xs []int64) int64 {
			if len(xs) == 0 {
				return decl.DefaultInt
			}
			return xs[len(xs)-1]
		}
	case CombineSum:
		return func(xs []int64) int64 {
			if len(xs) == 0 {
				return decl.DefaultInt
			}
			var total int64
			for _, x := range xs {
				total += x
			}
			return total
		}
	case CombineMin:
		return func(xs []int64) int64 {
			if len(xs) == 0 {
				return decl.DefaultInt
			}
			least := xs[0]
			for _, x := range xs[1:] {
				if x < least {
					least = x
				}
			}
			return least
		}
	case CombineMax:
		return func(xs []int64) int64 {
			if len(xs) == 0 {
				return decl.DefaultInt
			}
			most := xs[0]
			for _, x := range xs[1:] {
				if x > most {
					most = x
				}
			}
			return most
		}
	default: // first
		return func(xs []int64) int64 {
			if len(xs) == 0 {
				return decl.DefaultInt
			}
			return xs[0]
		}
	}
}

func stringCombine(decl FacetDecl) func([]string) string {
	switch decl.Combine {
	case CombineLast:
		return func(xs []string) string {
			if len(xs) == 0 {
				return decl.DefaultString
			}
			return xs[len(xs)-1]
		}
	case CombineConcat:
		return func(xs []string) string {
			if len(xs) == 0 {
				return decl.DefaultString
			}
			return strings.Join(xs, "")
		}
	default: // first
		return func(xs []string) string {
			if len(xs) == 0 {
				return decl.DefaultString
			}
			return xs[0]
		}
	}
}

func buildField(decl FieldDecl) state.StateField[int64] {
	compare := func(a, b int64) bool { return a == b }
	switch decl.Kind {
	case KindDocLength:
		return state.DefineField[int64](state.FieldSpec[int64]{
			Name:   decl.Name,
			Create: func(st *state.EditorState) int64 { return int64(len(st.Doc())) },
			Update: func(_ int64, tr *state.Transaction) int64 {
				return int64(len(tr.State().Doc()))
			},
			Compare: compare,
		})
	case KindSelectionHead:
		return state.DefineField[int64](state.FieldSpec[int64]{
			Name:   decl.Name,
			Create: func(st *state.EditorState) int64 { return int64(st.Selection().Head) },
			Update: func(_ int64, tr *state.Transaction) int64 {
				return int64(tr.State().Selection().Head)
			},
			Compare: compare,
		})
	default: // changeCount
		return state.DefineField[int64](state.FieldSpec[int64]{
			Name:   decl.Name,
			Create: func(*state.EditorState) int64 { return 0 },
			Update: func(v int64, tr *state.Transaction) int64 {
				if tr.DocChanged {
					return v + 1
				}
				return v
			},
			Compare: compare,
		})
	}
}

func parsePrec(s string) state.Precedence {
	switch s {
	case "override":
		return state.PrecOverride
	case "extend":
		return state.PrecExtend
	case "fallback":
		return state.PrecFallback
	default:
		return state.PrecDefault
	}
}

// FacetNames returns the declared facet names in sorted order.
func (p *Program) FacetNames() []string {
	names := make([]string, 0, len(p.facets))
	for name := range p.facets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldNames returns the declared field names in sorted order.
func (p *Program) FieldNames() []string {
	names := make([]string, 0, len(p.fields))
	for name := range p.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FacetHandle returns the opaque handle for a declared facet.
func (p *Program) FacetHandle(name string) (any, bool) {
	bf, ok := p.facets[name]
	if !ok {
		return nil, false
	}
	return bf.handle, true
}

// FacetValue reads one declared facet from a state.
func (p *Program) FacetValue(st *state.EditorState, name string) (any, error) {
	bf, ok := p.facets[name]
	if !ok {
		return nil, fmt.Errorf("unknown facet %q", name)
	}
	return bf.snapshot(st)
}

// FacetChanged reports whether a declared facet changed in st's transition.
func (p *Program) FacetChanged(st *state.EditorState, name string) (bool, error) {
	bf, ok := p.facets[name]
	if !ok {
		return false, fmt.Errorf("unknown facet %q", name)
	}
	return bf.changed(st), nil
}

// FieldValue reads one declared field from a state.
func (p *Program) FieldValue(st *state.EditorState, name string) (int64, error) {
	bf, ok := p.fields[name]
	if !ok {
		return 0, fmt.Errorf("unknown field %q", name)
	}
	v, present := bf.field.Lookup(st)
	if !present {
		return 0, fmt.Errorf("field %q is not part of the state's configuration", name)
	}
	return v, nil
}

// Snapshot reads every declared facet into a map suitable for canonical
// JSON hashing. Values are int64, string, or []any.
func (p *Program) Snapshot(st *state.EditorState) (map[string]any, error) {
	out := make(map[string]any, len(p.facets))
	for _, name := range p.FacetNames() {
		v, err := p.facets[name].snapshot(st)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
