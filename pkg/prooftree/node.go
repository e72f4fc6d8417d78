package prooftree

import "fmt"

// Node is a single node of an inclusion-proof tree. A node carries the
// hexadecimal text of its committed hash and either no children (leaf) or
// exactly two children labeled left and right.
//
// Nodes are built once by Parse and are immutable afterwards.
type Node struct {
	value string
	left  *Node
	right *Node
}

// Value returns the node's committed hash as hexadecimal text.
func (n *Node) Value() string {
	return n.value
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.left == nil && n.right == nil
}

// Children returns the node's children in left-then-right order.
// The result has zero or two elements.
func (n *Node) Children() []*Node {
	if n.IsLeaf() {
		return nil
	}
	return []*Node{n.left, n.right}
}

// Left returns the left child, or nil for a leaf.
func (n *Node) Left() *Node {
	return n.left
}

// Right returns the right child, or nil for a leaf.
func (n *Node) Right() *Node {
	return n.right
}

// MalformedProofError reports a proof tree that violates structural
// invariants, e.g. a node with exactly one child.
type MalformedProofError struct {
	Reason string
}

func (e *MalformedProofError) Error() string {
	return fmt.Sprintf("malformed proof: %s", e.Reason)
}
