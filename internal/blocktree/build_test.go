package blocktree

import (
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatBuilder map[string]FlatBlock

func (f flatBuilder) add(id string, typ domain.BlockType, children ...string) flatBuilder {
	f[id] = FlatBlock{ID: id, Type: typ, DisplayName: "Name " + id, Children: children}
	return f
}

// demoCatalog: course{C1{S1{V1{P1,P2}}}, C2{S2{V2{P3}}}}
func demoCatalog() flatBuilder {
	return flatBuilder{}.
		add("course", domain.BlockCourse, "c1", "c2").
		add("c1", domain.BlockChapter, "s1").
		add("s1", domain.BlockSequential, "v1").
		add("v1", domain.BlockVertical, "p1", "p2").
		add("p1", domain.BlockProblem).
		add("p2", domain.BlockProblem).
		add("c2", domain.BlockChapter, "s2").
		add("s2", domain.BlockSequential, "v2").
		add("v2", domain.BlockVertical, "p3").
		add("p3", domain.BlockProblem)
}

func collectIDs(root *domain.Block) []string {
	var ids []string
	root.Walk(func(b *domain.Block) bool {
		ids = append(ids, b.ID)
		return true
	})
	return ids
}

func TestBuild_MaterializesTreeInCatalogOrder(t *testing.T) {
	root, err := Build(demoCatalog(), "course", domain.DefaultBlockTypes)
	require.NoError(t, err)

	assert.Equal(t, []string{"course", "c1", "s1", "v1", "p1", "p2", "c2", "s2", "v2", "p3"}, collectIDs(root))
	assert.Equal(t, "Name v1", root.Children[0].Children[0].Children[0].DisplayName)
	assert.False(t, root.Complete)
	assert.False(t, root.ResumeBlock)
}

func TestBuild_PositionNumberPerParentAndType(t *testing.T) {
	flat := flatBuilder{}.
		add("root", domain.BlockCourse, "a", "b", "seq", "c").
		add("a", domain.BlockChapter).
		add("b", domain.BlockChapter).
		add("seq", domain.BlockSequential).
		add("c", domain.BlockChapter)

	root, err := Build(flat, "root", domain.DefaultBlockTypes)
	require.NoError(t, err)

	var got []int
	for _, child := range root.Children {
		got = append(got, child.PositionNumber)
	}
	assert.Equal(t, []int{0, 1, 0, 2}, got)
	assert.Equal(t, 0, root.PositionNumber)
}

func TestBuild_NumberingRestartsUnderEachParent(t *testing.T) {
	root, err := Build(demoCatalog(), "course", domain.DefaultBlockTypes)
	require.NoError(t, err)

	c2 := root.Children[1]
	assert.Equal(t, 1, c2.PositionNumber)
	assert.Equal(t, 0, c2.Children[0].PositionNumber, "first sequential under c2")
	assert.Equal(t, 0, c2.Children[0].Children[0].PositionNumber, "first vertical under s2")
	p2 := root.Children[0].Children[0].Children[0].Children[1]
	assert.Equal(t, 1, p2.PositionNumber)
}

func TestBuild_FilteringPreservesDescendants(t *testing.T) {
	flat := demoCatalog().
		add("v1", domain.BlockVertical, "p1", "lib", "p2").
		add("lib", "library_content", "p4", "split").
		add("split", "split_test", "p5").
		add("p4", domain.BlockProblem).
		add("p5", domain.BlockProblem)

	root, err := Build(flat, "course", domain.DefaultBlockTypes)
	require.NoError(t, err)

	v1 := root.Children[0].Children[0].Children[0]
	var kids []string
	for _, c := range v1.Children {
		kids = append(kids, c.ID)
	}
	assert.Equal(t, []string{"p1", "p4", "p5", "p2"}, kids)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{
		v1.Children[0].PositionNumber, v1.Children[1].PositionNumber,
		v1.Children[2].PositionNumber, v1.Children[3].PositionNumber,
	})
	assert.NotContains(t, collectIDs(root), "lib")
	assert.NotContains(t, collectIDs(root), "split")
}

func TestBuild_EmptyWhitelistKeepsEverything(t *testing.T) {
	flat := demoCatalog().
		add("v2", domain.BlockVertical, "p3", "lib").
		add("lib", "library_content")

	root, err := Build(flat, "course", nil)
	require.NoError(t, err)
	assert.Contains(t, collectIDs(root), "lib")
}

func TestBuild_MissingChildFails(t *testing.T) {
	flat := demoCatalog().add("v2", domain.BlockVertical, "p3", "ghost")

	_, err := Build(flat, "course", domain.DefaultBlockTypes)
	require.Error(t, err)

	var missing *domain.MissingBlockError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "ghost", missing.BlockID)
	assert.Equal(t, "v2", missing.ParentID)
}

func TestBuild_MissingRootFails(t *testing.T) {
	_, err := Build(demoCatalog(), "nope", nil)
	var missing *domain.MissingBlockError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, missing.ParentID)
}

func TestBuild_CycleFails(t *testing.T) {
	flat := demoCatalog().add("p3", domain.BlockProblem, "s2")

	_, err := Build(flat, "course", nil)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestBuild_TreeIsIndependentOfCatalog(t *testing.T) {
	flat := demoCatalog()
	root, err := Build(flat, "course", nil)
	require.NoError(t, err)

	flat.add("c1", domain.BlockChapter)
	assert.Len(t, root.Children[0].Children, 1)
}

func TestFromStructure_CopiesOnlyRequestedFieldsWithData(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bs := blockgraph.New("course")
	bs.AddBlock("course", map[string]any{blockgraph.FieldType: "course", blockgraph.FieldDisplayName: "Demo"})
	bs.AddBlock("c1", map[string]any{
		blockgraph.FieldType:        "chapter",
		blockgraph.FieldDisplayName: "Intro",
		blockgraph.FieldDue:         due,
		blockgraph.FieldGraded:      true,
		blockgraph.FieldFormat:      "Homework",
	})
	bs.AddBlock("c2", map[string]any{blockgraph.FieldType: "chapter", blockgraph.FieldGraded: false})
	bs.AddRelation("course", "c1")
	bs.AddRelation("course", "c2")

	flat := FromStructure(bs, DefaultRequestedFields)
	require.Len(t, flat, 3)

	c1 := flat["c1"]
	assert.Equal(t, domain.BlockChapter, c1.Type)
	assert.Equal(t, "Intro", c1.DisplayName)
	require.NotNil(t, c1.Due)
	assert.True(t, due.Equal(*c1.Due))
	require.NotNil(t, c1.Graded)
	assert.Equal(t, "Homework", c1.Format)
	assert.Nil(t, flat["c2"].Graded)
	assert.Nil(t, flat["c2"].Due)
	assert.Equal(t, []string{"c1", "c2"}, flat["course"].Children)

	bare := FromStructure(bs, []string{blockgraph.FieldType})
	assert.Empty(t, bare["course"].Children)
	assert.Empty(t, bare["c1"].DisplayName)
}

func TestFromStructure_DanglingChildFailsBuild(t *testing.T) {
	bs := blockgraph.New("course")
	bs.AddBlock("course", map[string]any{blockgraph.FieldType: "course"})
	bs.AddBlock("c1", map[string]any{blockgraph.FieldType: "chapter"})
	bs.AddRelation("course", "c1")
	bs.AddRelation("c1", "gone")

	flat := FromStructure(bs, DefaultRequestedFields)
	assert.NotContains(t, flat, "gone")

	_, err := Build(flat, "course", domain.DefaultBlockTypes)
	var missing *domain.MissingBlockError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "gone", missing.BlockID)
	assert.Equal(t, "c1", missing.ParentID)
}
