package domain

import "time"

// Block is one node of a materialized course tree. Children are owned
// exclusively; a block never points back at its parent.
type Block struct {
	ID             string
	BlockID        string
	Type           BlockType
	DisplayName    string
	Due            *time.Time
	Graded         *bool
	Format         string
	Children       []*Block
	PositionNumber int
	Complete       bool
	ResumeBlock    bool
}

// IsLeaf reports whether the block has no children.
func (b *Block) IsLeaf() bool {
	return len(b.Children) == 0
}

// Clone returns a deep copy of the block and its subtree.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := *b
	if b.Due != nil {
		due := *b.Due
		c.Due = &due
	}
	if b.Graded != nil {
		graded := *b.Graded
		c.Graded = &graded
	}
	if b.Children != nil {
		c.Children = make([]*Block, len(b.Children))
		for i, child := range b.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk visits the block and its descendants depth-first in child order.
// Returning false from fn skips the visited block's subtree.
func (b *Block) Walk(fn func(*Block) bool) {
	if b == nil || !fn(b) {
		return
	}
	for _, child := range b.Children {
		child.Walk(fn)
	}
}
