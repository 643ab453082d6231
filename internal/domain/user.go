package domain

type User struct {
	ID       int64
	Username string
	Email    string
	IsStaff  bool
}

type Enrollment struct {
	UserID    int64
	CourseKey string
	Mode      string
	IsActive  bool
}

// DefaultEnrollmentMode is stored when an enrollment names no mode.
const DefaultEnrollmentMode = "audit"

type CourseAccessRole struct {
	UserID    int64
	CourseKey string
	Role      CourseRole
}

type Course struct {
	Key         string
	DisplayName string
}

type Cohort struct {
	ID        string
	CourseKey string
	Name      string
}

type Team struct {
	ID        string
	CourseKey string
	Name      string
}
