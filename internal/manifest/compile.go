package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a manifest compilation failure with CUE position info
// when the source position is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	var pos token.Pos
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		pos = errs[0].Position()
	}
	return &CompileError{
		Field:   "cue",
		Message: cueerrors.Details(err, nil),
		Pos:     pos,
	}
}

// Compile parses a manifest CUE value into a Spec. The value holds three
// optional top-level structs:
//
//	facet:   <name>: {input, combine, static?, default?}
//	provide: [{facet, value, prec?}, ...]
//	field:   <name>: {kind, provide?: [{facet, prec?}, ...]}
func Compile(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}

	facetsVal := v.LookupPath(cue.ParsePath("facet"))
	if facetsVal.Exists() {
		iter, err := facetsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			decl, err := compileFacet(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Facets = append(spec.Facets, decl)
		}
	}

	provideVal := v.LookupPath(cue.ParsePath("provide"))
	if provideVal.Exists() {
		iter, err := provideVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			prov, err := compileProvision(iter.Value(), spec)
			if err != nil {
				return nil, err
			}
			spec.Provisions = append(spec.Provisions, prov)
		}
	}

	fieldsVal := v.LookupPath(cue.ParsePath("field"))
	if fieldsVal.Exists() {
		iter, err := fieldsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			decl, err := compileField(iter.Label(), iter.Value(), spec)
			if err != nil {
				return nil, err
			}
			spec.Fields = append(spec.Fields, decl)
		}
	}

	if len(spec.Facets) == 0 {
		return nil, &CompileError{
			Field:   "facet",
			Message: "manifest declares no facets",
			Pos:     v.Pos(),
		}
	}
	return spec, nil
}

func compileFacet(name string, v cue.Value) (FacetDecl, error) {
	decl := FacetDecl{Name: name}

	input, err := requiredString(v, "input")
	if err != nil {
		return decl, err
	}
	if input != "int" && input != "string" {
		return decl, &CompileError{
			Field:   "input",
			Message: fmt.Sprintf("facet %q: unsupported input type %q", name, input),
			Pos:     v.Pos(),
		}
	}
	decl.Input = input

	combine, err := requiredString(v, "combine")
	if err != nil {
		return decl, err
	}
	if err := checkCombine(name, input, combine, v.Pos()); err != nil {
		return decl, err
	}
	decl.Combine = combine

	if staticVal := v.LookupPath(cue.ParsePath("static")); staticVal.Exists() {
		b, err := staticVal.Bool()
		if err != nil {
			return decl, formatCUEError(err)
		}
		decl.Static = b
	}

	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		switch input {
		case "int":
			n, err := defVal.Int64()
			if err != nil {
				return decl, formatCUEError(err)
			}
			decl.DefaultInt = n
		case "string":
			s, err := defVal.String()
			if err != nil {
				return decl, formatCUEError(err)
			}
			decl.DefaultString = s
		}
	}
	return decl, nil
}

func checkCombine(name, input, combine string, pos token.Pos) error {
	switch combine {
	case CombineFirst, CombineLast, CombineList:
		return nil
	case CombineSum, CombineMin, CombineMax:
		if input != "int" {
			return &CompileError{
				Field:   "combine",
				Message: fmt.Sprintf("facet %q: combine %q requires int input", name, combine),
				Pos:     pos,
			}
		}
		return nil
	case CombineConcat:
		if input != "string" {
			return &CompileError{
				Field:   "combine",
				Message: fmt.Sprintf("facet %q: combine %q requires string input", name, combine),
				Pos:     pos,
			}
		}
		return nil
	default:
		return &CompileError{
			Field:   "combine",
			Message: fmt.Sprintf("facet %q: unknown combine strategy %q", name, combine),
			Pos:     pos,
		}
	}
}

func compileProvision(v cue.Value, spec *Spec) (Provision, error) {
	prov := Provision{}

	facetName, err := requiredString(v, "facet")
	if err != nil {
		return prov, err
	}
	decl, ok := spec.facetByName(facetName)
	if !ok {
		return prov, &CompileError{
			Field:   "provide",
			Message: fmt.Sprintf("provision targets undeclared facet %q", facetName),
			Pos:     v.Pos(),
		}
	}
	prov.Facet = facetName

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return prov, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("provision for facet %q has no value", facetName),
			Pos:     v.Pos(),
		}
	}
	switch decl.Input {
	case "int":
		n, err := valueVal.Int64()
		if err != nil {
			return prov, formatCUEError(err)
		}
		prov.Value = n
	case "string":
		s, err := valueVal.String()
		if err != nil {
			return prov, formatCUEError(err)
		}
		prov.Value = s
	}

	prov.Prec, err = optionalPrec(v)
	if err != nil {
		return prov, err
	}
	return prov, nil
}

func compileField(name string, v cue.Value, spec *Spec) (FieldDecl, error) {
	decl := FieldDecl{Name: name}

	kind, err := requiredString(v, "kind")
	if err != nil {
		return decl, err
	}
	switch kind {
	case KindChangeCount, KindDocLength, KindSelectionHead:
	default:
		return decl, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("field %q: unknown kind %q", name, kind),
			Pos:     v.Pos(),
		}
	}
	decl.Kind = kind

	provideVal := v.LookupPath(cue.ParsePath("provide"))
	if provideVal.Exists() {
		iter, err := provideVal.List()
		if err != nil {
			return decl, formatCUEError(err)
		}
		for iter.Next() {
			pv := iter.Value()
			facetName, err := requiredString(pv, "facet")
			if err != nil {
				return decl, err
			}
			target, ok := spec.facetByName(facetName)
			if !ok {
				return decl, &CompileError{
					Field:   "provide",
					Message: fmt.Sprintf("field %q provides into undeclared facet %q", name, facetName),
					Pos:     pv.Pos(),
				}
			}
			if target.Input != "int" {
				return decl, &CompileError{
					Field:   "provide",
					Message: fmt.Sprintf("field %q provides into facet %q, which does not take int input", name, facetName),
					Pos:     pv.Pos(),
				}
			}
			prec, err := optionalPrec(pv)
			if err != nil {
				return decl, err
			}
			decl.Provides = append(decl.Provides, FieldProvision{Facet: facetName, Prec: prec})
		}
	}
	return decl, nil
}

func (s *Spec) facetByName(name string) (FacetDecl, bool) {
	for _, decl := range s.Facets {
		if decl.Name == name {
			return decl, true
		}
	}
	return FacetDecl{}, false
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalPrec(v cue.Value) (string, error) {
	pv := v.LookupPath(cue.ParsePath("prec"))
	if !pv.Exists() {
		return "default", nil
	}
	s, err := pv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	switch s {
	case "override", "extend", "default", "fallback":
		return s, nil
	default:
		return "", &CompileError{
			Field:   "prec",
			Message: fmt.Sprintf("unknown precedence %q", s),
			Pos:     pv.Pos(),
		}
	}
}
