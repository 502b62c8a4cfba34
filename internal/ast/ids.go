package ast

import "sigil/internal/source"

// NodeID identifies a node within one parsed module. The parser hands them
// out sequentially starting at 1; later passes key their side tables by it.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Meta is embedded in every node.
type Meta struct {
	ID   NodeID
	Span source.Span
}

func (m *Meta) NodeID() NodeID { return m.ID }
func (m *Meta) NodeSpan() source.Span { return m.Span }

// Node is implemented by every AST node.
type Node interface {
	NodeID() NodeID
	NodeSpan() source.Span
}
