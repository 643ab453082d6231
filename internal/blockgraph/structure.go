// Package blockgraph holds a course's block catalog as a directed graph of
// usage keys with per-block fields. It is the shape the catalog store hands
// out before any tree is materialized: blocks may in principle have several
// parents, and parent lookups are always answered here rather than by a tree.
package blockgraph

import (
	"slices"

	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// Well-known field names.
const (
	FieldType        = "type"
	FieldDisplayName = "display_name"
	FieldDue         = "due"
	FieldGraded      = "graded"
	FieldFormat      = "format"
)

type blockData struct {
	declared bool
	fields   map[string]any
	children []string
	parents  []string
}

// BlockStructure is a rooted block graph. It is not safe for concurrent
// mutation; readers may share it once loading is finished.
type BlockStructure struct {
	root   string
	order  []string
	blocks map[string]*blockData
}

// New creates a structure containing only the root block.
func New(root string) *BlockStructure {
	bs := &BlockStructure{
		root:   root,
		blocks: make(map[string]*blockData),
	}
	bs.ensure(root)
	return bs
}

func (bs *BlockStructure) ensure(key string) *blockData {
	if b, ok := bs.blocks[key]; ok {
		return b
	}
	b := &blockData{fields: make(map[string]any)}
	bs.blocks[key] = b
	bs.order = append(bs.order, key)
	return b
}

// Root returns the root usage key.
func (bs *BlockStructure) Root() string { return bs.root }

// Len returns the number of blocks.
func (bs *BlockStructure) Len() int { return len(bs.blocks) }

// AddBlock registers a block, merging fields into any already present.
func (bs *BlockStructure) AddBlock(key string, fields map[string]any) {
	b := bs.ensure(key)
	b.declared = true
	for k, v := range fields {
		b.fields[k] = v
	}
}

// AddRelation appends child to parent's children. Both blocks are created
// if needed; repeated relations are ignored.
func (bs *BlockStructure) AddRelation(parent, child string) {
	p := bs.ensure(parent)
	c := bs.ensure(child)
	if !slices.Contains(p.children, child) {
		p.children = append(p.children, child)
	}
	if !slices.Contains(c.parents, parent) {
		c.parents = append(c.parents, parent)
	}
}

// Keys returns every block key in insertion order.
func (bs *BlockStructure) Keys() []string {
	return slices.Clone(bs.order)
}

// Has reports whether key is part of the structure.
func (bs *BlockStructure) Has(key string) bool {
	_, ok := bs.blocks[key]
	return ok
}

// Declared reports whether key was added with AddBlock. Blocks known only
// from a relation are referenced by the catalog but not held by it.
func (bs *BlockStructure) Declared(key string) bool {
	b, ok := bs.blocks[key]
	return ok && b.declared
}

// Children returns the ordered children of key.
func (bs *BlockStructure) Children(key string) []string {
	if b, ok := bs.blocks[key]; ok {
		return slices.Clone(b.children)
	}
	return nil
}

// Parents returns the parents of key.
func (bs *BlockStructure) Parents(key string) []string {
	if b, ok := bs.blocks[key]; ok {
		return slices.Clone(b.parents)
	}
	return nil
}

// Field returns a declared field value, or nil when unset.
func (bs *BlockStructure) Field(key, name string) any {
	if b, ok := bs.blocks[key]; ok {
		return b.fields[name]
	}
	return nil
}

// FieldNames returns the names of fields set on key, sorted.
func (bs *BlockStructure) FieldNames(key string) []string {
	b, ok := bs.blocks[key]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(b.fields))
	for name := range b.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DisplayName returns the display_name field as a string.
func (bs *BlockStructure) DisplayName(key string) string {
	s, _ := bs.Field(key, FieldDisplayName).(string)
	return s
}

// BlockType returns the block's type field, falling back to the type
// embedded in its usage key.
func (bs *BlockStructure) BlockType(key string) domain.BlockType {
	switch v := bs.Field(key, FieldType).(type) {
	case domain.BlockType:
		return v
	case string:
		if v != "" {
			return domain.BlockType(v)
		}
	}
	if u, err := coursekey.ParseUsageKey(key); err == nil {
		return u.BlockType
	}
	return ""
}

// RemoveBlock deletes key from the structure. With keepDescendants the
// block's children take its place, in order, in each parent's child list.
// Without it, descendants left with no parent are removed as well.
// The root cannot be removed; RemoveBlock reports whether anything changed.
func (bs *BlockStructure) RemoveBlock(key string, keepDescendants bool) bool {
	if key == bs.root {
		return false
	}
	b, ok := bs.blocks[key]
	if !ok {
		return false
	}

	for _, parentKey := range b.parents {
		parent := bs.blocks[parentKey]
		idx := slices.Index(parent.children, key)
		if idx < 0 {
			continue
		}
		var spliced []string
		if keepDescendants {
			for _, child := range b.children {
				if !slices.Contains(parent.children, child) && !slices.Contains(spliced, child) {
					spliced = append(spliced, child)
				}
			}
		}
		parent.children = slices.Concat(parent.children[:idx], spliced, parent.children[idx+1:])
	}

	for _, childKey := range b.children {
		child := bs.blocks[childKey]
		child.parents = slices.DeleteFunc(child.parents, func(p string) bool { return p == key })
		if keepDescendants {
			for _, parentKey := range b.parents {
				if !slices.Contains(child.parents, parentKey) {
					child.parents = append(child.parents, parentKey)
				}
			}
		}
	}

	delete(bs.blocks, key)
	bs.order = slices.DeleteFunc(bs.order, func(k string) bool { return k == key })

	if !keepDescendants {
		for _, childKey := range b.children {
			if child, ok := bs.blocks[childKey]; ok && len(child.parents) == 0 {
				bs.RemoveBlock(childKey, false)
			}
		}
	}
	return true
}

// FilterTypes removes every non-root block whose type is not in allowed,
// keeping its descendants. It returns the removed keys.
func (bs *BlockStructure) FilterTypes(allowed map[domain.BlockType]bool) []string {
	var removed []string
	for _, key := range bs.Keys() {
		if key == bs.root || allowed[bs.BlockType(key)] {
			continue
		}
		if bs.RemoveBlock(key, true) {
			removed = append(removed, key)
		}
	}
	return removed
}
