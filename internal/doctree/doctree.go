package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Walk visits every node in document order, each section before its
// subsections.
func (t *DocTree) Walk(fn func(*DocNode)) {
	for _, child := range t.Children {
		child.walk(fn)
	}
}

func (n *DocNode) walk(fn func(*DocNode)) {
	fn(n)
	for _, child := range n.Children {
		child.walk(fn)
	}
}

// Empty reports whether the tree holds no heading or text at all.
func (t *DocTree) Empty() bool {
	empty := true
	t.Walk(func(n *DocNode) {
		if n.Title != "" || n.Text != "" {
			empty = false
		}
	})
	return empty
}
