package domain

import "time"

// UserStatusAudit is the append-only record of a user status transition.
// Written exactly once per change, never updated or deleted.
type UserStatusAudit struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
	Reason    string     `json:"reason"`
	ChangedAt time.Time  `json:"changed_at"`
}
