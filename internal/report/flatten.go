// Package report turns course trees and block graphs into per-learner
// report rows: completion rows grouped by block type, the last page each
// learner reached, and per-unit exit counts.
package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alexanderramin/waypoint/internal/blocktree"
	"github.com/alexanderramin/waypoint/internal/domain"
)

// Lookups answers per-user questions for one course. A user the lookup
// knows nothing about gets an unmarked tree and empty cohort and team.
type Lookups interface {
	Completion(userID int64) (domain.CompletionSet, bool)
	Cohort(userID int64) string
	Teams(userID int64) []string
}

// StaticLookups is a Lookups backed by maps prefetched for one course.
type StaticLookups struct {
	Completions map[int64]domain.CompletionSet
	Cohorts     map[int64]string
	TeamNames   map[int64][]string
}

func (s StaticLookups) Completion(userID int64) (domain.CompletionSet, bool) {
	cs, ok := s.Completions[userID]
	return cs, ok
}

func (s StaticLookups) Cohort(userID int64) string { return s.Cohorts[userID] }

func (s StaticLookups) Teams(userID int64) []string { return s.TeamNames[userID] }

// Ancestor names an enclosing block of a reported block.
type Ancestor struct {
	Name   string
	Number int
}

// BlockRow is one reported block for one user.
type BlockRow struct {
	ID          string
	Name        string
	Complete    bool
	Number      int
	ResumeBlock bool
	Section     *Ancestor
	Subsection  *Ancestor
	Vertical    *Ancestor
}

type blockRowJSON struct {
	Name             string  `json:"name"`
	Complete         bool    `json:"complete"`
	Number           int     `json:"number"`
	ResumeBlock      bool    `json:"resume_block"`
	SectionName      *string `json:"section_name,omitempty"`
	SectionNumber    *int    `json:"section_number,omitempty"`
	SubsectionName   *string `json:"subsection_name,omitempty"`
	SubsectionNumber *int    `json:"subsection_number,omitempty"`
	VerticalName     *string `json:"vertical_name,omitempty"`
	VerticalNumber   *int    `json:"vertical_number,omitempty"`
}

func (r BlockRow) MarshalJSON() ([]byte, error) {
	out := blockRowJSON{
		Name:        r.Name,
		Complete:    r.Complete,
		Number:      r.Number,
		ResumeBlock: r.ResumeBlock,
	}
	if r.Section != nil {
		out.SectionName, out.SectionNumber = &r.Section.Name, &r.Section.Number
	}
	if r.Subsection != nil {
		out.SubsectionName, out.SubsectionNumber = &r.Subsection.Name, &r.Subsection.Number
	}
	if r.Vertical != nil {
		out.VerticalName, out.VerticalNumber = &r.Vertical.Name, &r.Vertical.Number
	}
	return json.Marshal(out)
}

func (r *BlockRow) UnmarshalJSON(data []byte) error {
	var in blockRowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = BlockRow{
		Name:        in.Name,
		Complete:    in.Complete,
		Number:      in.Number,
		ResumeBlock: in.ResumeBlock,
		Section:     ancestorFrom(in.SectionName, in.SectionNumber),
		Subsection:  ancestorFrom(in.SubsectionName, in.SubsectionNumber),
		Vertical:    ancestorFrom(in.VerticalName, in.VerticalNumber),
	}
	return nil
}

func ancestorFrom(name *string, number *int) *Ancestor {
	if name == nil && number == nil {
		return nil
	}
	a := &Ancestor{}
	if name != nil {
		a.Name = *name
	}
	if number != nil {
		a.Number = *number
	}
	return a
}

// UserReport holds one user's identity and rows, keyed by block type.
// Rows of a type keep depth-first catalog order.
type UserReport struct {
	Username string
	UserID   int64
	Cohort   string
	Team     string
	Rows     map[domain.BlockType][]BlockRow

	types []domain.BlockType
}

// Types returns the block types that have rows, in the order they were first
// reported.
func (u UserReport) Types() []domain.BlockType {
	if len(u.types) == len(u.Rows) {
		return u.types
	}
	types := make([]domain.BlockType, 0, len(u.Rows))
	for t := range u.Rows {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (u *UserReport) add(t domain.BlockType, row BlockRow) {
	if u.Rows == nil {
		u.Rows = make(map[domain.BlockType][]BlockRow)
	}
	if _, seen := u.Rows[t]; !seen {
		u.types = append(u.types, t)
	}
	u.Rows[t] = append(u.Rows[t], row)
}

var identityKeys = map[string]bool{"username": true, "user_id": true, "cohort": true, "team": true}

// MarshalJSON writes the identity fields next to one key per block type.
func (u UserReport) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"username": u.Username,
		"user_id":  u.UserID,
		"cohort":   u.Cohort,
		"team":     u.Team,
	}
	for t, rows := range u.Rows {
		if identityKeys[string(t)] {
			return nil, fmt.Errorf("block type %q collides with a user field", t)
		}
		out[string(t)] = rows
	}
	return json.Marshal(out)
}

func (u *UserReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UserReport{}
	for key, msg := range raw {
		var err error
		switch key {
		case "username":
			err = json.Unmarshal(msg, &u.Username)
		case "user_id":
			err = json.Unmarshal(msg, &u.UserID)
		case "cohort":
			err = json.Unmarshal(msg, &u.Cohort)
		case "team":
			err = json.Unmarshal(msg, &u.Team)
		default:
			var rows []BlockRow
			if err = json.Unmarshal(msg, &rows); err == nil {
				if u.Rows == nil {
					u.Rows = make(map[domain.BlockType][]BlockRow)
				}
				u.Rows[domain.BlockType(key)] = rows
			}
		}
		if err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
	}
	return nil
}

// Flatten produces one UserReport per user. Each user gets a private copy of
// root marked with their completion set; root itself is never modified.
// Every block below the course root whose type is in filter becomes a row
// carrying its nearest enclosing chapter, sequential and vertical.
func Flatten(root *domain.Block, users []domain.User, lookups Lookups, filter []domain.BlockType) []UserReport {
	allowed := domain.TypeSet(filter)
	reports := make([]UserReport, 0, len(users))

	for _, user := range users {
		tree := root
		if cs, ok := lookups.Completion(user.ID); ok {
			tree = root.Clone()
			blocktree.MarkComplete(tree, cs)
		}

		ur := UserReport{
			Username: user.Username,
			UserID:   user.ID,
			Cohort:   lookups.Cohort(user.ID),
		}
		if teams := lookups.Teams(user.ID); len(teams) > 0 {
			ur.Team = teams[0]
		}
		if tree != nil {
			for _, child := range tree.Children {
				collect(child, enclosing{}, allowed, &ur)
			}
		}
		reports = append(reports, ur)
	}
	return reports
}

type enclosing struct {
	section, subsection, vertical *domain.Block
}

func (e enclosing) enter(b *domain.Block) enclosing {
	switch b.Type {
	case domain.BlockChapter:
		e.section = b
	case domain.BlockSequential:
		e.subsection = b
	case domain.BlockVertical:
		e.vertical = b
	}
	return e
}

func collect(b *domain.Block, anc enclosing, allowed map[domain.BlockType]bool, ur *UserReport) {
	if allowed[b.Type] {
		ur.add(b.Type, BlockRow{
			ID:          b.ID,
			Name:        b.DisplayName,
			Complete:    b.Complete,
			Number:      b.PositionNumber,
			ResumeBlock: b.ResumeBlock,
			Section:     ancestorOf(anc.section),
			Subsection:  ancestorOf(anc.subsection),
			Vertical:    ancestorOf(anc.vertical),
		})
	}
	inner := anc.enter(b)
	for _, child := range b.Children {
		collect(child, inner, allowed, ur)
	}
}

func ancestorOf(b *domain.Block) *Ancestor {
	if b == nil {
		return nil
	}
	return &Ancestor{Name: b.DisplayName, Number: b.PositionNumber}
}
