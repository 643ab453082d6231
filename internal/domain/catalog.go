package domain

import "time"

// CatalogBlock is a block as the content store holds it, before any tree is
// built. Optional fields are nil or empty when the author left them unset.
type CatalogBlock struct {
	UsageKey    string
	CourseKey   string
	Type        BlockType
	DisplayName string
	Due         *time.Time
	Graded      *bool
	Format      string
}
