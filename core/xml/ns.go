package xml

// Space returns the namespace URI of the element.
func (n *Node) Space() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.NamespaceURI
}

// IsNS reports whether the element is local in namespace space, whatever
// prefix it was written with.
func (n *Node) IsNS(space, local string) bool {
	return n.Space() == space && n.Name() == local
}

// ChildNS returns the first child element local in namespace space, or nil.
func (n *Node) ChildNS(space, local string) *Node {
	for _, c := range n.Children() {
		if c.IsNS(space, local) {
			return c
		}
	}
	return nil
}

// ChildrenNS returns the child elements local in namespace space.
func (n *Node) ChildrenNS(space, local string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.IsNS(space, local) {
			out = append(out, c)
		}
	}
	return out
}

// DescendantNS returns the first element below n, in document order, that
// is local in namespace space.
func (n *Node) DescendantNS(space, local string) *Node {
	for _, c := range n.Children() {
		if c.IsNS(space, local) {
			return c
		}
		if d := c.DescendantNS(space, local); d != nil {
			return d
		}
	}
	return nil
}

// AttrNS returns the value of the attribute local in namespace space. An
// empty space matches unqualified attributes.
func (n *Node) AttrNS(space, local string) (string, bool) {
	if n == nil || n.node == nil {
		return "", false
	}
	for _, a := range n.node.Attr {
		if a.Name.Local != local {
			continue
		}
		if a.NamespaceURI == space || (space == "" && a.Name.Space == "") {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValueNS returns the namespaced attribute value or the empty string.
func (n *Node) AttrValueNS(space, local string) string {
	v, _ := n.AttrNS(space, local)
	return v
}
