package entities

import "github.com/google/uuid"

// Caller is the identity an operation runs on behalf of. It is always passed
// explicitly; the zero value is an anonymous caller.
type Caller struct {
	UserID uuid.UUID
}

// Anonymous returns a caller without identity
func Anonymous() Caller {
	return Caller{}
}

// NewCaller returns an authenticated caller
func NewCaller(userID uuid.UUID) Caller {
	return Caller{UserID: userID}
}

// IsAuthenticated reports whether the caller carries an identity
func (c Caller) IsAuthenticated() bool {
	return c.UserID != uuid.Nil
}

// String renders the caller for logs
func (c Caller) String() string {
	if !c.IsAuthenticated() {
		return "anonymous"
	}
	return c.UserID.String()
}
