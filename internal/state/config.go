package state

import (
	"fmt"
	"log/slog"
)

// Configuration is the compiled evaluation plan for one extension tree:
// an address for every contributing entity, the resolved static values, and
// an ordered list of dynamic slots. Immutable after construction.
//
// The aggregate slot for a facet is placed after all of its provider slots,
// so a left-to-right sweep of dynamicSlots respects dependencies; the
// evaluator does not rely on this, being demand-driven, but the ordering
// keeps a full transition down to one pass.
type Configuration struct {
	address      map[ID]Address
	staticValues []any
	dynamicSlots []dynamicSlot
}

// ConfigInfo is a stable, inspectable summary of a configuration.
type ConfigInfo struct {
	DynamicSlots []SlotInfo `json:"dynamic_slots"`
	StaticCount  int        `json:"static_count"`
	AddressCount int        `json:"address_count"`
}

// Describe summarises the compiled plan for diagnostics and tests.
func (c *Configuration) Describe() ConfigInfo {
	info := ConfigInfo{
		DynamicSlots: make([]SlotInfo, len(c.dynamicSlots)),
		StaticCount:  len(c.staticValues),
		AddressCount: len(c.address),
	}
	for i, slot := range c.dynamicSlots {
		info.DynamicSlots[i] = slot.info()
	}
	return info
}

// newStatus returns a fresh per-state status vector, all uninitialized.
func (c *Configuration) newStatus() []slotStatus {
	return make([]slotStatus, len(c.dynamicSlots))
}

// slotBuilder defers slot construction until every address is assigned, so
// a slot can resolve dependency addresses that are allocated after it.
type slotBuilder func(cfg *Configuration) (dynamicSlot, error)

// Resolve compiles an extension tree into a Configuration.
//
// old, when non-nil, is a state bound to a previous configuration; static
// facet values whose recomputed output is compareOutput-equal to the old
// value are reused by instance, preserving referential equality for
// downstream consumers across reconfigurations.
func Resolve(ext Extension, old *EditorState) (cfg *Configuration, err error) {
	defer catchCoreError(&err)

	flattened := flatten(ext)

	// Partition: fields in order of first appearance (deduplicated by
	// identity), providers grouped per facet preserving canonical order.
	var fields []*fieldBase
	var facetOrder []*facetData
	providersFor := make(map[ID][]*provider)
	seenField := make(map[ID]struct{})
	for _, leaf := range flattened {
		switch l := leaf.(type) {
		case fieldExtension:
			base := l.fieldData()
			if _, dup := seenField[base.id]; dup {
				continue
			}
			seenField[base.id] = struct{}{}
			fields = append(fields, base)
		case *provider:
			if _, ok := providersFor[l.facet.id]; !ok {
				facetOrder = append(facetOrder, l.facet)
			}
			providersFor[l.facet.id] = append(providersFor[l.facet.id], l)
		default:
			return nil, fmt.Errorf("state: unexpected extension leaf %T", leaf)
		}
	}

	cfg = &Configuration{address: make(map[ID]Address)}
	var builders []slotBuilder
	pushDynamic := func(id ID, b slotBuilder) {
		cfg.address[id] = dynamicAddress(len(builders))
		builders = append(builders, b)
	}
	pushStatic := func(id ID, v any) {
		cfg.address[id] = staticAddress(len(cfg.staticValues))
		cfg.staticValues = append(cfg.staticValues, v)
	}

	for _, field := range fields {
		f := field
		pushDynamic(f.id, func(cfg *Configuration) (dynamicSlot, error) {
			return &fieldSlot{field: f, idx: cfg.address[f.id].index()}, nil
		})
	}

	reused := 0
	for _, facet := range facetOrder {
		providers := providersFor[facet.id]

		if allStatic(providers) {
			inputs := make([]any, len(providers))
			for i, p := range providers {
				inputs[i] = p.value
			}
			value := facet.combine(inputs)
			if old != nil {
				if oldAddr, ok := old.config.address[facet.id]; ok {
					oldVal := getAddr(old, oldAddr)
					if facet.compareOutput(value, oldVal) {
						value = oldVal
						reused++
					}
				}
			}
			pushStatic(facet.id, value)
			continue
		}

		if facet.static {
			return nil, &Error{
				Code:    ErrCodeStaticFacetViolation,
				Message: "static facet resolved with a computed provider",
				Entity:  facet.label(),
			}
		}

		refs := make([]providerRef, len(providers))
		for i, p := range providers {
			if p.kind == providerStatic {
				pushStatic(p.id, p.value)
			} else {
				prov := p
				pushDynamic(p.id, func(cfg *Configuration) (dynamicSlot, error) {
					return buildProviderSlot(cfg, prov)
				})
			}
			refs[i] = providerRef{multi: p.kind == providerMulti}
		}
		f, rs := facet, refs
		ps := providers
		pushDynamic(facet.id, func(cfg *Configuration) (dynamicSlot, error) {
			for i, p := range ps {
				rs[i].addr = cfg.address[p.id]
			}
			return &aggregateSlot{facet: f, idx: cfg.address[f.id].index(), providers: rs}, nil
		})
	}

	// Materialise the plan now that every address is known.
	cfg.dynamicSlots = make([]dynamicSlot, len(builders))
	for i, build := range builders {
		slot, err := build(cfg)
		if err != nil {
			return nil, err
		}
		cfg.dynamicSlots[i] = slot
	}

	slog.Debug("configuration resolved",
		"fields", len(fields),
		"facets", len(facetOrder),
		"dynamic_slots", len(cfg.dynamicSlots),
		"static_values", len(cfg.staticValues),
		"static_reused", reused,
	)

	return cfg, nil
}

func allStatic(providers []*provider) bool {
	for _, p := range providers {
		if p.kind != providerStatic {
			return false
		}
	}
	return true
}

// buildProviderSlot resolves a computed provider's dependency list against
// the finished address map. Dependencies on facets or fields absent from
// the configuration are inert: they can never change within it. Static
// addresses are likewise dropped.
func buildProviderSlot(cfg *Configuration, p *provider) (dynamicSlot, error) {
	slot := &providerSlot{p: p, idx: cfg.address[p.id].index()}
	for _, dep := range p.deps {
		switch d := dep.(type) {
		case observeTag:
			switch d {
			case "doc":
				slot.depDoc = true
			case "selection":
				slot.depSel = true
			default:
				return nil, invalidDependency(p, dep)
			}
		case fieldExtension:
			if addr, ok := cfg.address[d.fieldData().id]; ok && !addr.isStatic() {
				slot.depAddrs = append(slot.depAddrs, addr)
			}
		default:
			fd, err := facetDataOf(dep)
			if err != nil {
				return nil, invalidDependency(p, dep)
			}
			if addr, ok := cfg.address[fd.id]; ok && !addr.isStatic() {
				slot.depAddrs = append(slot.depAddrs, addr)
			}
		}
	}
	return slot, nil
}

func invalidDependency(p *provider, dep Dependency) error {
	return &Error{
		Code:    ErrCodeInvalidDependency,
		Message: fmt.Sprintf("dependency %T is not a facet, a field, Doc, or Sel", dep),
		Entity:  p.facet.label(),
	}
}
