package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/waypoint/internal/blockgraph"
	"github.com/alexanderramin/waypoint/internal/coursekey"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// TimeLayout formats last_time_accessed.
const TimeLayout = "2006-01-02 15:04:05.999999-07:00"

// Graph is the read side of a course block graph. *blockgraph.BlockStructure
// implements it.
type Graph interface {
	Children(key string) []string
	Parents(key string) []string
	DisplayName(key string) string
	BlockType(key string) domain.BlockType
	TopologicalTraversal(opts blockgraph.TraversalOptions) []string
}

var _ Graph = (*blockgraph.BlockStructure)(nil)

// LastPageEntry is where one learner last completed something in a course.
type LastPageEntry struct {
	Username         string `json:"username"`
	LastTimeAccessed string `json:"last_time_accessed"`
	LastPageViewed   string `json:"last_page_viewed"`
	BlockID          string `json:"block_id"`
	VerticalBlockID  string `json:"vertical_block_id"`
}

// UnitVisitRecord counts the learners whose last page is one unit.
type UnitVisitRecord struct {
	PageTitle  string `json:"page_title"`
	VerticalID string `json:"vertical_id"`
	ExitCount  int    `json:"exit_count"`
}

// ResolveAncestorChain returns the display names of the chapter, sequential
// and vertical above block, followed by block's own name. Each level follows
// the first parent.
func ResolveAncestorChain(g Graph, block string) ([]string, error) {
	chain := []string{block}
	key := block
	for _, level := range []string{"vertical", "sequential", "chapter"} {
		parents := g.Parents(key)
		if len(parents) == 0 {
			return nil, fmt.Errorf("no %s above %s: %w", level, block, domain.ErrUnresolvedCompletion)
		}
		key = parents[0]
		chain = append(chain, key)
	}

	names := make([]string, len(chain))
	for i, k := range chain {
		names[len(chain)-1-i] = g.DisplayName(k)
	}
	return names, nil
}

// LastPageAccessed places each user's latest completion under its unit.
// Components are matched on their short block id. Users without a latest
// completion, or whose block no longer sits under any unit, are left out.
func LastPageAccessed(g Graph, users []domain.User, latest map[int64]*domain.LatestCompletion) []LastPageEntry {
	components := unitComponents(g)

	var entries []LastPageEntry
	for _, user := range users {
		lc := latest[user.ID]
		if lc == nil {
			continue
		}
		entry, err := locate(g, components, lc)
		if err != nil {
			continue
		}
		entry.Username = user.Username
		entries = append(entries, entry)
	}
	return entries
}

// unitComponents maps the short block id of every child of a vertical to its
// usage key. Later units win when ids repeat.
func unitComponents(g Graph) map[string]string {
	verticals := g.TopologicalTraversal(blockgraph.TraversalOptions{
		Filter:                      func(key string) bool { return g.BlockType(key) == domain.BlockVertical },
		YieldDescendantsOfUnyielded: true,
	})
	components := make(map[string]string)
	for _, v := range verticals {
		for _, child := range g.Children(v) {
			components[coursekey.BlockIDOf(child)] = child
		}
	}
	return components
}

func locate(g Graph, components map[string]string, lc *domain.LatestCompletion) (LastPageEntry, error) {
	blockID := coursekey.BlockIDOf(lc.BlockKey)
	component, ok := components[blockID]
	if !ok {
		return LastPageEntry{}, fmt.Errorf("block %s: %w", lc.BlockKey, domain.ErrUnresolvedCompletion)
	}
	names, err := ResolveAncestorChain(g, component)
	if err != nil {
		return LastPageEntry{}, err
	}
	return LastPageEntry{
		LastTimeAccessed: FormatAccessTime(lc.Modified),
		LastPageViewed:   strings.Join(names, "-"),
		BlockID:          blockID,
		VerticalBlockID:  coursekey.BlockIDOf(g.Parents(component)[0]),
	}, nil
}

// FormatAccessTime renders a completion timestamp for last_time_accessed.
func FormatAccessTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ExitCounts lists every unit of the course in traversal order with the
// number of lastPage entries that stopped there. No entries means no records.
func ExitCounts(lastPage []LastPageEntry, g Graph) []UnitVisitRecord {
	if len(lastPage) == 0 {
		return nil
	}

	exits := make(map[string]int, len(lastPage))
	for _, e := range lastPage {
		exits[e.VerticalBlockID]++
	}

	var records []UnitVisitRecord
	var chapter, sequential string
	for _, key := range g.TopologicalTraversal(blockgraph.TraversalOptions{}) {
		switch g.BlockType(key) {
		case domain.BlockChapter:
			chapter = g.DisplayName(key)
		case domain.BlockSequential:
			sequential = g.DisplayName(key)
		case domain.BlockVertical:
			id := coursekey.BlockIDOf(key)
			records = append(records, UnitVisitRecord{
				PageTitle:  strings.Join([]string{chapter, sequential, g.DisplayName(key)}, "-"),
				VerticalID: id,
				ExitCount:  exits[id],
			})
		}
	}
	return records
}
