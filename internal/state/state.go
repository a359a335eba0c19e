package state

// Selection is the flat selection model the core observes: a single
// anchor/head pair of rune offsets into the document.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// EditorStateConfig configures a fresh editor state.
type EditorStateConfig struct {
	// Doc is the initial document text.
	Doc string

	// Selection is the initial selection.
	Selection Selection

	// Extension is the root of the extension tree. Nil means no
	// extensions.
	Extension Extension
}

// EditorState owns one immutable snapshot of the document, the selection,
// and the per-slot value and status vectors bound to a Configuration.
//
// Values are written only during the state's construction; user code
// observing a state outside a transition must treat them as immutable.
type EditorState struct {
	config    *Configuration
	doc       string
	selection Selection

	values []any
	status []slotStatus

	// applying is the in-flight transaction while this state is being
	// populated, nil otherwise.
	applying *Transaction
}

// NewEditorState resolves the extension tree and populates a fresh state.
func NewEditorState(cfg EditorStateConfig) (*EditorState, error) {
	ext := cfg.Extension
	if ext == nil {
		ext = Extensions()
	}
	config, err := Resolve(ext, nil)
	if err != nil {
		return nil, err
	}
	st := &EditorState{
		config:    config,
		doc:       cfg.Doc,
		selection: cfg.Selection,
		values:    make([]any, len(config.dynamicSlots)),
		status:    config.newStatus(),
	}
	if err := st.computeAll(); err != nil {
		return nil, err
	}
	return st, nil
}

// Doc returns the document text.
func (st *EditorState) Doc() string { return st.doc }

// Selection returns the selection.
func (st *EditorState) Selection() Selection { return st.selection }

// Config returns the state's compiled configuration.
func (st *EditorState) Config() *Configuration { return st.config }

// FacetByHandle reads a facet value through an opaque handle, as held by
// declarative registries that cannot name the facet's type parameters.
// Returns a MISSING_FACET_DATA error when h is not a facet handle, and a
// CYCLIC_DEPENDENCY error when the read forces a cyclic evaluation.
func (st *EditorState) FacetByHandle(h any) (v any, err error) {
	fd, err := facetDataOf(h)
	if err != nil {
		return nil, err
	}
	addr, ok := st.config.address[fd.id]
	if !ok {
		return fd.defaultVal, nil
	}
	defer catchCoreError(&err)
	ensureAddr(st, addr)
	return getAddr(st, addr), nil
}

// FacetChangedByHandle reports whether the facet behind h recorded a change
// during the state's transition.
func (st *EditorState) FacetChangedByHandle(h any) (bool, error) {
	fd, err := facetDataOf(h)
	if err != nil {
		return false, err
	}
	addr, ok := st.config.address[fd.id]
	if !ok || addr.isStatic() {
		return false, nil
	}
	return st.status[addr.index()]&statusChanged != 0, nil
}
