package vdom

// LiveNodeKind discriminates the rendered tree produced by RenderNode. There
// is no React host in this port (SPEC_FULL.md), so LiveNode is the "live
// tree" spec.md describes as a React element tree: domsync (wasm-only)
// commits it to real DOM nodes the way React-DOM commits a fiber tree.
type LiveNodeKind int

const (
	LiveEmpty     LiveNodeKind = iota // null/undefined/bool: renders nothing
	LiveText                          // string/number leaf
	LiveElement                       // HTML intrinsic or resolved component output
	LiveFragment                      // grouping without a wrapper element
)

// NodeMeta is the side metadata spec §3 requires to live outside element
// props: the eval set, which prop keys are bound callbacks, and the
// element's current path. It is embedded directly on LiveNode rather than
// kept in an external map keyed by element reference, because LiveNode (our
// own struct) already plays that role — there is no foreign React element
// to avoid polluting.
type NodeMeta struct {
	Eval   map[string]bool
	CBKeys map[string]CallbackHandle
	Path   string
}

// LiveNode is a rendered VDOM node.
type LiveNode struct {
	Kind     LiveNodeKind
	Tag      string
	Key      string
	HasKey   bool
	Attrs    *PropMap // nil for LiveText/LiveEmpty
	Children []*LiveNode
	Text     string
	Meta     *NodeMeta
	// Handle is an opaque slot for the real native node (a syscall/js.Value
	// in the wasm domsync layer); pkg/vdom never reads or writes it except
	// to carry it across reconciliation moves/clones.
	Handle any
}

func (n *LiveNode) shallowClone() *LiveNode {
	c := *n
	if n.Attrs != nil {
		c.Attrs = n.Attrs.Clone()
	}
	if n.Meta != nil {
		m := *n.Meta
		m.Eval = cloneBoolSet(n.Meta.Eval)
		m.CBKeys = cloneHandleSet(n.Meta.CBKeys)
		c.Meta = &m
	}
	if n.Children != nil {
		c.Children = append([]*LiveNode(nil), n.Children...)
	}
	return &c
}

func cloneBoolSet(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneHandleSet(m map[string]CallbackHandle) map[string]CallbackHandle {
	if m == nil {
		return nil
	}
	out := make(map[string]CallbackHandle, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TextContent concatenates the text of this node and its descendants,
// matching the concrete scenarios in spec §8 ("whose text content is...").
func (n *LiveNode) TextContent() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case LiveText:
		return n.Text
	case LiveElement, LiveFragment:
		var out string
		for _, c := range n.Children {
			out += c.TextContent()
		}
		return out
	default:
		return ""
	}
}
