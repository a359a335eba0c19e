package state

import "log/slog"

// TransactionSpec describes a state transition. Nil fields leave the
// corresponding part of the state untouched.
type TransactionSpec struct {
	// Doc replaces the document text. Setting it marks the transaction
	// DocChanged even when the replacement equals the current text: a
	// replacement is a document operation either way.
	Doc *string

	// Selection replaces the selection and marks the transaction
	// SelectionSet.
	Selection *Selection

	// Reconfigure replaces the extension tree. The new configuration is
	// resolved against the current state so compatible static values are
	// reused by instance.
	Reconfigure Extension
}

// Transaction is one applied transition from a start state to a new state.
// The change flags are fixed at creation; slot evaluators consult them to
// decide what to recompute.
type Transaction struct {
	DocChanged   bool
	SelectionSet bool
	Reconfigured bool

	startState *EditorState
	newState   *EditorState
}

// StartState returns the state the transaction started from.
func (tr *Transaction) StartState() *EditorState { return tr.startState }

// State returns the state the transaction leads to. During application this
// is the in-flight state, which is what lets field update functions read
// other slots on demand.
func (tr *Transaction) State() *EditorState { return tr.newState }

// Update applies a transaction to the state and returns it. Every dynamic
// slot of the new state is evaluated exactly once; slots whose inputs did
// not change semantically carry their previous value forward without
// reporting a change.
func (st *EditorState) Update(spec TransactionSpec) (*Transaction, error) {
	tr := &Transaction{
		DocChanged:   spec.Doc != nil,
		SelectionSet: spec.Selection != nil,
		Reconfigured: spec.Reconfigure != nil,
		startState:   st,
	}

	doc := st.doc
	if spec.Doc != nil {
		doc = *spec.Doc
	}
	selection := st.selection
	if spec.Selection != nil {
		selection = *spec.Selection
	}

	config := st.config
	if tr.Reconfigured {
		next, err := Resolve(spec.Reconfigure, st)
		if err != nil {
			return nil, err
		}
		config = next
	}

	next := &EditorState{
		config:    config,
		doc:       doc,
		selection: selection,
		values:    make([]any, len(config.dynamicSlots)),
		status:    config.newStatus(),
		applying:  tr,
	}
	tr.newState = next
	if err := next.computeAll(); err != nil {
		return nil, err
	}
	next.applying = nil

	slog.Debug("transaction applied",
		"doc_changed", tr.DocChanged,
		"selection_set", tr.SelectionSet,
		"reconfigured", tr.Reconfigured,
		"dynamic_slots", len(config.dynamicSlots),
	)

	return tr, nil
}
