package blocktree

import "github.com/alexanderramin/waypoint/internal/domain"

// MarkComplete sets Complete and ResumeBlock on every block of root for one
// user's completion set. It mutates root in place; callers share a tree
// across users by passing each user a Clone.
//
// A block is complete when the user completed it directly, or when it has at
// least one non-discussion child and all of those are complete. Discussion
// children never count either way. ResumeBlock marks the path from the root
// to the latest completed block.
func MarkComplete(root *domain.Block, cs domain.CompletionSet) {
	if root == nil || cs.Latest == nil {
		return
	}
	markComplete(root, cs)
}

func markComplete(b *domain.Block, cs domain.CompletionSet) {
	b.Complete = cs.IsCompleted(b.ID)
	b.ResumeBlock = b.ID == cs.Latest.BlockKey

	var completable, completed int
	for _, child := range b.Children {
		markComplete(child, cs)
		if child.ResumeBlock {
			b.ResumeBlock = true
		}
		if child.Type == domain.BlockDiscussion {
			continue
		}
		completable++
		if child.Complete {
			completed++
		}
	}

	if completable > 0 && completed == completable {
		b.Complete = true
	}
}
