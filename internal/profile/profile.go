// Package profile stores the per-user context the coaching agents need:
// stated goals and the medication list the safety checks run against.
package profile

import "time"

// Profile is a user's coaching profile.
type Profile struct {
	UserID      string
	Goals       string
	Medications []string
	CreatedAt   time.Time
}
