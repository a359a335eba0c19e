package state

// Extension is a composable unit of configuration: a facet provider, a
// state field, an ordered group of extensions, or a precedence-wrapped
// inner extension.
//
// The interface is sealed. Every implementation is comparable (a pointer or
// a small handle struct), which is what lets the resolver deduplicate
// shared subtrees by identity.
type Extension interface {
	extension()
}

// Extensions groups extensions into one, preserving order.
func Extensions(exts ...Extension) Extension {
	group := &extGroup{exts: make([]Extension, 0, len(exts))}
	for _, e := range exts {
		if e != nil {
			group.exts = append(group.exts, e)
		}
	}
	return group
}

// extGroup is an ordered list of extensions.
type extGroup struct {
	exts []Extension
}

func (g *extGroup) extension() {}

// Precedence determines resolver ordering. Lower values are higher
// priority; ties within a level preserve insertion order from the flattened
// tree. An extension inherits the nearest enclosing precedence, defaulting
// to PrecDefault.
type Precedence int

const (
	PrecOverride Precedence = iota
	PrecExtend
	PrecDefault
	PrecFallback

	numPrecedences = 4
)

func (p Precedence) String() string {
	switch p {
	case PrecOverride:
		return "override"
	case PrecExtend:
		return "extend"
	case PrecDefault:
		return "default"
	case PrecFallback:
		return "fallback"
	default:
		return "invalid"
	}
}

// Set wraps ext at this precedence level. Precedences already set inside
// ext are unaffected.
func (p Precedence) Set(ext Extension) Extension {
	return &precExt{prec: p, inner: ext}
}

// precExt replaces the inherited precedence for its subtree.
type precExt struct {
	prec  Precedence
	inner Extension
}

func (w *precExt) extension() {}

// fieldExtension is implemented by every StateField instantiation so the
// resolver can reach the untyped field core.
type fieldExtension interface {
	Extension
	fieldData() *fieldBase
}

// flatten traverses the extension tree depth-first and returns the leaves
// (providers and fields) in canonical order: precedence buckets
// concatenated override-first, insertion order within each bucket.
//
// A seen set keyed on extension identity deduplicates: a value encountered
// a second time is skipped entirely. This permits shared subtrees and
// guards against reference cycles in the extension graph (distinct from
// value-dependency cycles, which are detected at evaluation time).
//
// A field leaf also contributes its attached extensions, flattened at the
// field's own effective precedence; an explicit precedence wrapper inside
// the attached list still wins.
func flatten(ext Extension) []Extension {
	var buckets [numPrecedences][]Extension
	seen := make(map[Extension]struct{})

	var walk func(ext Extension, prec Precedence)
	walk = func(ext Extension, prec Precedence) {
		if ext == nil {
			return
		}
		if _, dup := seen[ext]; dup {
			return
		}
		seen[ext] = struct{}{}

		switch e := ext.(type) {
		case *extGroup:
			for _, sub := range e.exts {
				walk(sub, prec)
			}
		case *precExt:
			walk(e.inner, e.prec)
		case *provider:
			buckets[prec] = append(buckets[prec], e)
		case fieldExtension:
			buckets[prec] = append(buckets[prec], e)
			for _, attached := range e.fieldData().provides {
				walk(attached, prec)
			}
		}
	}
	walk(ext, PrecDefault)

	var out []Extension
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}
	return out
}
