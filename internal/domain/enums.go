package domain

type BlockType string

const (
	BlockCourse     BlockType = "course"
	BlockChapter    BlockType = "chapter"
	BlockSequential BlockType = "sequential"
	BlockVertical   BlockType = "vertical"
	BlockHTML       BlockType = "html"
	BlockProblem    BlockType = "problem"
	BlockVideo      BlockType = "video"
	BlockDiscussion BlockType = "discussion"
	BlockDragDrop   BlockType = "drag-and-drop-v2"
	BlockPoll       BlockType = "poll"
	BlockWordCloud  BlockType = "word_cloud"
)

// DefaultBlockTypes is the whitelist of block types kept when building a course tree.
// Order matches the outline from the course root down to leaf components.
var DefaultBlockTypes = []BlockType{
	BlockCourse,
	BlockChapter,
	BlockSequential,
	BlockVertical,
	BlockHTML,
	BlockProblem,
	BlockVideo,
	BlockDiscussion,
	BlockDragDrop,
	BlockPoll,
	BlockWordCloud,
}

// DefaultReportFilter is used when a completion report request names no block types.
var DefaultReportFilter = []BlockType{BlockVertical}

// TypeSet builds a membership set from a list of block types.
func TypeSet(types []BlockType) map[BlockType]bool {
	set := make(map[BlockType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

type CourseRole string

const (
	RoleStaff      CourseRole = "staff"
	RoleInstructor CourseRole = "instructor"
	RoleBetaTester CourseRole = "beta_testers"
)

// RoleStudent is reported for users without any course access role.
const RoleStudent CourseRole = "student"

type SkipReason string

const (
	SkipInvalidCourseKey SkipReason = "invalid_course_key"
	SkipNoEnrolledUsers  SkipReason = "no_enrolled_users"
	SkipNoStaffUser      SkipReason = "no_staff_user"
	SkipCourseNotFound   SkipReason = "course_not_found"
)
