package session

// Status is the coarse navigational state of the counseling terminal.
// Exactly one value is active at a time; StatusLocked overrides whatever
// the status field would otherwise present.
type Status string

const (
	// StatusLogin is shown while no identity is authenticated.
	StatusLogin Status = "LOGIN"
	// StatusStudentSelect is the subject selection screen.
	StatusStudentSelect Status = "STUDENT_SELECT"
	// StatusTerminal is the active recording screen for a selected subject.
	StatusTerminal Status = "TERMINAL"
	// StatusLocked is entered after a successful submission and only left
	// through the unlock gate.
	StatusLocked Status = "LOCKED"
	// StatusDashboard is the admin surface.
	StatusDashboard Status = "DASHBOARD"
)

// Identity roles.
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Identity describes the authenticated operator.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
