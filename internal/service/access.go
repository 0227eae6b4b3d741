package service

import "context"

// Role names accepted by the authorization boundary.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Actor is the authenticated principal acting on a request. Role is the
// explicit acting role selected for this request, already validated against
// the principal's role set at the HTTP boundary.
type Actor struct {
	ID   uint
	Role string
}

// IsTeacher reports whether the actor is acting as a teacher.
func (a Actor) IsTeacher() bool {
	return a.Role == RoleTeacher
}

// RoomAccessChecker resolves classroom membership. Room and user identity are
// owned by an external collaborator; this engine only consumes the boolean
// answer.
type RoomAccessChecker interface {
	IsAuthorized(ctx context.Context, roomID, userID uint, role string) (bool, error)
}

// AllowAllAccess grants every membership check; used in tests and single-room
// deployments without a rooms service.
type AllowAllAccess struct{}

// IsAuthorized always reports membership.
func (AllowAllAccess) IsAuthorized(context.Context, uint, uint, string) (bool, error) {
	return true, nil
}
