package enrollment

// Status of a learner's enrollment in a course.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusWithdrawn Status = "WITHDRAWN"
)

// Recipient is an actively enrolled learner of a course.
type Recipient struct {
	UserID      int64
	Email       string
	DisplayName string
}
