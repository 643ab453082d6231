package domain

import "time"

// LatestCompletion points at the block a user completed most recently.
type LatestCompletion struct {
	BlockKey string
	Modified time.Time
}

// CompletionSet holds a user's completed blocks in one course. A nil Latest
// means the user has not completed anything yet.
type CompletionSet struct {
	Completed map[string]bool
	Latest    *LatestCompletion
}

// IsCompleted reports whether the block with the given usage key is done.
func (c CompletionSet) IsCompleted(blockKey string) bool {
	return c.Completed[blockKey]
}

// BlockCompletion is a single stored completion event.
type BlockCompletion struct {
	ID         string
	UserID     int64
	CourseKey  string
	BlockKey   string
	Completion float64
	Modified   time.Time
}
