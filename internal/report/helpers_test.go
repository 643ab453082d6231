package report

import (
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/blocktree"
	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/stretchr/testify/require"
)

var demoCourse = coursekey.CourseKey{Org: "Demo", Course: "CS101", Run: "2026"}

func key(t domain.BlockType, id string) string {
	if t == domain.BlockCourse {
		return demoCourse.RootUsageKey().String()
	}
	return demoCourse.MakeUsageKey(t, id).String()
}

type node struct {
	typ      domain.BlockType
	id, name string
	children []node
}

func (n node) key() string { return key(n.typ, n.id) }

func addNode(bs *blockgraph.BlockStructure, n node) {
	bs.AddBlock(n.key(), map[string]any{
		blockgraph.FieldType:        string(n.typ),
		blockgraph.FieldDisplayName: n.name,
	})
	for _, c := range n.children {
		addNode(bs, c)
		bs.AddRelation(n.key(), c.key())
	}
}

// demoOutline: C1{S1{V1{P1,P2}}}, C2{S2{V2{P3}}}
func demoOutline() node {
	return node{typ: domain.BlockCourse, id: "course", name: "Demo Course", children: []node{
		{typ: domain.BlockChapter, id: "c1", name: "Chapter 1", children: []node{
			{typ: domain.BlockSequential, id: "s1", name: "Seq 1", children: []node{
				{typ: domain.BlockVertical, id: "v1", name: "Unit 1", children: []node{
					{typ: domain.BlockProblem, id: "p1", name: "Problem 1"},
					{typ: domain.BlockProblem, id: "p2", name: "Problem 2"},
				}},
			}},
		}},
		{typ: domain.BlockChapter, id: "c2", name: "Chapter 2", children: []node{
			{typ: domain.BlockSequential, id: "s2", name: "Seq 2", children: []node{
				{typ: domain.BlockVertical, id: "v2", name: "Unit 2", children: []node{
					{typ: domain.BlockProblem, id: "p3", name: "Problem 3"},
				}},
			}},
		}},
	}}
}

func graphOf(outline node) *blockgraph.BlockStructure {
	bs := blockgraph.New(outline.key())
	addNode(bs, outline)
	return bs
}

func treeOf(t *testing.T, bs *blockgraph.BlockStructure) *domain.Block {
	t.Helper()
	flat := blocktree.FromStructure(bs, blocktree.DefaultRequestedFields)
	root, err := blocktree.Build(flat, bs.Root(), domain.DefaultBlockTypes)
	require.NoError(t, err)
	return root
}

var (
	userA = domain.User{ID: 1, Username: "ana", Email: "ana@example.com"}
	userB = domain.User{ID: 2, Username: "ben", Email: "ben@example.com"}
	userC = domain.User{ID: 3, Username: "cy", Email: "cy@example.com"}
)

var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func completed(latest string, at time.Time, done ...string) domain.CompletionSet {
	cs := domain.CompletionSet{Completed: map[string]bool{}}
	for _, k := range done {
		cs.Completed[k] = true
	}
	cs.Latest = &domain.LatestCompletion{BlockKey: latest, Modified: at}
	return cs
}
