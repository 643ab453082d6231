// Package coursekey parses course and block usage identifiers.
//
// Two course key forms are accepted: "course-v1:Org+Course+Run" and the
// legacy slash form "Org/Course/Run". Block usage keys take the form
// "block-v1:Org+Course+Run+type@<type>+block@<id>".
package coursekey

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexanderramin/waypoint/internal/domain"
)

const (
	coursePrefix = "course-v1:"
	blockPrefix  = "block-v1:"
)

var partPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-~%]+$`)

// CourseKey identifies a course run.
type CourseKey struct {
	Org    string
	Course string
	Run    string
	legacy bool
}

// Parse parses a course key string. It returns an error wrapping
// domain.ErrInvalidCourseKey when the string is malformed.
func Parse(s string) (CourseKey, error) {
	s = strings.TrimSpace(s)
	var parts []string
	legacy := false
	switch {
	case strings.HasPrefix(s, coursePrefix):
		parts = strings.Split(strings.TrimPrefix(s, coursePrefix), "+")
	case strings.Count(s, "/") == 2:
		parts = strings.Split(s, "/")
		legacy = true
	default:
		return CourseKey{}, fmt.Errorf("%w: %q", domain.ErrInvalidCourseKey, s)
	}
	if len(parts) != 3 {
		return CourseKey{}, fmt.Errorf("%w: %q", domain.ErrInvalidCourseKey, s)
	}
	for _, p := range parts {
		if !partPattern.MatchString(p) {
			return CourseKey{}, fmt.Errorf("%w: %q", domain.ErrInvalidCourseKey, s)
		}
	}
	return CourseKey{Org: parts[0], Course: parts[1], Run: parts[2], legacy: legacy}, nil
}

func (k CourseKey) String() string {
	if k.legacy {
		return k.Org + "/" + k.Course + "/" + k.Run
	}
	return coursePrefix + k.Org + "+" + k.Course + "+" + k.Run
}

// MakeUsageKey returns the usage key of a block in this course.
func (k CourseKey) MakeUsageKey(blockType domain.BlockType, blockID string) UsageKey {
	return UsageKey{Course: k, BlockType: blockType, BlockID: blockID}
}

// RootUsageKey returns the usage key of the course block itself.
func (k CourseKey) RootUsageKey() UsageKey {
	return k.MakeUsageKey(domain.BlockCourse, "course")
}

// UsageKey identifies a single block within a course.
type UsageKey struct {
	Course    CourseKey
	BlockType domain.BlockType
	BlockID   string
}

func (u UsageKey) String() string {
	c := u.Course
	return fmt.Sprintf("%s%s+%s+%s+type@%s+block@%s", blockPrefix, c.Org, c.Course, c.Run, u.BlockType, u.BlockID)
}

// ParseUsageKey parses a block usage key string.
func ParseUsageKey(s string) (UsageKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, blockPrefix) {
		return UsageKey{}, fmt.Errorf("invalid usage key %q", s)
	}
	parts := strings.Split(strings.TrimPrefix(s, blockPrefix), "+")
	if len(parts) != 5 {
		return UsageKey{}, fmt.Errorf("invalid usage key %q", s)
	}
	typ, ok := strings.CutPrefix(parts[3], "type@")
	if !ok || typ == "" {
		return UsageKey{}, fmt.Errorf("invalid usage key %q: missing type", s)
	}
	id, ok := strings.CutPrefix(parts[4], "block@")
	if !ok || id == "" {
		return UsageKey{}, fmt.Errorf("invalid usage key %q: missing block id", s)
	}
	for _, p := range parts[:3] {
		if !partPattern.MatchString(p) {
			return UsageKey{}, fmt.Errorf("invalid usage key %q", s)
		}
	}
	return UsageKey{
		Course:    CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]},
		BlockType: domain.BlockType(typ),
		BlockID:   id,
	}, nil
}

// BlockIDOf returns the short block id of a usage key string, or the input
// unchanged when it is not a usage key.
func BlockIDOf(s string) string {
	u, err := ParseUsageKey(s)
	if err != nil {
		return s
	}
	return u.BlockID
}
