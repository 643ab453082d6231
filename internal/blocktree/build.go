// Package blocktree materializes a course tree from a flat block catalog and
// marks per-user completion on it.
package blocktree

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// FlatBlock is one catalog entry: a block with its child ids still unresolved.
type FlatBlock struct {
	ID          string
	Type        domain.BlockType
	Children    []string
	DisplayName string
	Due         *time.Time
	Graded      *bool
	Format      string
}

// ErrCycle is returned when a block is reachable from itself.
var ErrCycle = errors.New("cycle in block catalog")

// DefaultRequestedFields are the catalog fields copied onto tree blocks.
var DefaultRequestedFields = []string{
	"children",
	blockgraph.FieldDisplayName,
	blockgraph.FieldType,
	blockgraph.FieldDue,
	blockgraph.FieldGraded,
	blockgraph.FieldFormat,
}

// Build resolves the flat catalog into a single tree rooted at rootID.
//
// Blocks whose type is not in whitelist are dropped and their children take
// their place in the parent's child list. An empty whitelist keeps every
// block. Each parent numbers its children per type, starting at zero.
// A child id with no catalog entry fails the build with *domain.MissingBlockError.
func Build(flat map[string]FlatBlock, rootID string, whitelist []domain.BlockType) (*domain.Block, error) {
	root, ok := flat[rootID]
	if !ok {
		return nil, &domain.MissingBlockError{BlockID: rootID}
	}
	b := &builder{
		flat:     flat,
		allowed:  domain.TypeSet(whitelist),
		visiting: make(map[string]bool),
	}
	return b.build(root)
}

type builder struct {
	flat     map[string]FlatBlock
	allowed  map[domain.BlockType]bool
	visiting map[string]bool
}

func (b *builder) build(fb FlatBlock) (*domain.Block, error) {
	if b.visiting[fb.ID] {
		return nil, fmt.Errorf("block %q: %w", fb.ID, ErrCycle)
	}
	b.visiting[fb.ID] = true
	defer delete(b.visiting, fb.ID)

	node := newBlock(fb)

	childIDs, err := b.keptChildren(fb)
	if err != nil {
		return nil, err
	}

	counter := make(map[domain.BlockType]int)
	for _, id := range childIDs {
		child, err := b.build(b.flat[id])
		if err != nil {
			return nil, err
		}
		child.PositionNumber = counter[child.Type]
		counter[child.Type]++
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// keptChildren expands fb's children, replacing filtered-out blocks by
// their own (recursively expanded) children.
func (b *builder) keptChildren(fb FlatBlock) ([]string, error) {
	var out []string
	for _, id := range fb.Children {
		child, ok := b.flat[id]
		if !ok {
			return nil, &domain.MissingBlockError{BlockID: id, ParentID: fb.ID}
		}
		if len(b.allowed) > 0 && !b.allowed[child.Type] {
			if b.visiting[id] {
				return nil, fmt.Errorf("block %q: %w", id, ErrCycle)
			}
			b.visiting[id] = true
			grand, err := b.keptChildren(child)
			delete(b.visiting, id)
			if err != nil {
				return nil, err
			}
			out = append(out, grand...)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func newBlock(fb FlatBlock) *domain.Block {
	b := &domain.Block{
		ID:          fb.ID,
		BlockID:     coursekey.BlockIDOf(fb.ID),
		Type:        fb.Type,
		DisplayName: fb.DisplayName,
		Format:      fb.Format,
	}
	if fb.Due != nil {
		due := *fb.Due
		b.Due = &due
	}
	if fb.Graded != nil {
		graded := *fb.Graded
		b.Graded = &graded
	}
	return b
}

// FromStructure converts a block graph into a flat catalog, copying only the
// requested fields that carry data. Blocks the graph knows only as a child
// reference are left out, so Build reports them as missing.
func FromStructure(bs *blockgraph.BlockStructure, requested []string) map[string]FlatBlock {
	want := make(map[string]bool, len(requested))
	for _, f := range requested {
		want[f] = true
	}

	flat := make(map[string]FlatBlock, bs.Len())
	for _, key := range bs.Keys() {
		if !bs.Declared(key) {
			continue
		}
		fb := FlatBlock{ID: key, Type: bs.BlockType(key)}
		if want["children"] {
			fb.Children = bs.Children(key)
		}
		if want[blockgraph.FieldDisplayName] {
			fb.DisplayName = bs.DisplayName(key)
		}
		if want[blockgraph.FieldFormat] {
			fb.Format, _ = bs.Field(key, blockgraph.FieldFormat).(string)
		}
		if want[blockgraph.FieldDue] {
			if due, ok := bs.Field(key, blockgraph.FieldDue).(time.Time); ok && !due.IsZero() {
				fb.Due = &due
			}
		}
		if want[blockgraph.FieldGraded] {
			if graded, ok := bs.Field(key, blockgraph.FieldGraded).(bool); ok && graded {
				fb.Graded = &graded
			}
		}
		flat[key] = fb
	}
	return flat
}
