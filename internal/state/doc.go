// Package state implements the PRISM extension-composition core.
//
// The core turns a declarative tree of extensions - state fields and facet
// providers - into a compiled Configuration, lays out an addressable value
// store, and incrementally recomputes derived values when transactions are
// applied.
//
// ARCHITECTURE:
//
// Two kinds of stateful contribution are unified:
//   - Fields: values updated from a previous value plus a transaction.
//   - Facets: values aggregated from many provider inputs, each of which may
//     itself be derived from fields or other facets.
//
// Resolution flattens the extension tree (depth-first, precedence-bucketed,
// identity-deduplicated) and partitions contributions into static slots,
// resolved once per configuration, and dynamic slots, recomputed per
// transition. Every slot is located by a tagged 32-bit address whose low bit
// distinguishes static from dynamic.
//
// Evaluation is demand-driven and synchronous. A slot is computed at most
// once per transition; a slot re-entered while it is being computed is a
// cyclic dependency and aborts the transition. There is no explicit
// dependency DAG - cycles are discovered at evaluation time, which accepts
// programs whose cyclic declarations never produce cyclic reads.
//
// The engine is single-threaded by design. Distinct states and
// configurations may live on distinct goroutines, but a single state must
// not be shared during a transition.
package state
