package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered tree. Lasts holds, for every level
// from the top-level children down to this item, whether that ancestor (or
// the item itself) is the last of its siblings. The root has no Lasts.
type TreeItem struct {
	Title  string
	Lasts  []bool
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

func (it TreeItem) prefix() string {
	if len(it.Lasts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, last := range it.Lasts[:len(it.Lasts)-1] {
		if last {
			b.WriteString(treeBlank)
		} else {
			b.WriteString(treePipe)
		}
	}
	if it.Lasts[len(it.Lasts)-1] {
		b.WriteString(treeCorner)
	} else {
		b.WriteString(treeBranch)
	}
	return b.String()
}

// RenderTree renders items with box-drawing connectors and right-aligned
// detail badges.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	widest := 0
	for i, item := range items {
		contents[i] = Dim(item.prefix()) + item.Title
		widest = max(widest, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := widest - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render("[ "+item.Detail+" ]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OutlineItems lays a course tree out as TreeItems. Every block below the
// root is titled with its position number.
func OutlineItems(root *domain.Block) []TreeItem {
	if root == nil {
		return nil
	}
	items := []TreeItem{{Title: Bold(displayName(root)), Detail: blockDetail(root)}}
	var walk func(b *domain.Block, lasts []bool)
	walk = func(b *domain.Block, lasts []bool) {
		for i, child := range b.Children {
			childLasts := append(append([]bool(nil), lasts...), i == len(b.Children)-1)
			items = append(items, TreeItem{
				Title:  Dim(fmt.Sprintf("#%d ", child.PositionNumber)) + displayName(child),
				Lasts:  childLasts,
				Detail: blockDetail(child),
			})
			walk(child, childLasts)
		}
	}
	walk(root, nil)
	return items
}

func displayName(b *domain.Block) string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.BlockID
}

func blockDetail(b *domain.Block) string {
	parts := []string{string(b.Type)}
	if b.Graded != nil && *b.Graded {
		parts = append(parts, "graded")
	}
	if b.Format != "" {
		parts = append(parts, b.Format)
	}
	if b.Due != nil {
		parts = append(parts, "due "+b.Due.UTC().Format("2006-01-02"))
	}
	return strings.Join(parts, " · ")
}
