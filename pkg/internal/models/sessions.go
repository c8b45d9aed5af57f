package models

import "time"

// Session is the connection footprint of one identity.
// Live state is kept in memory by the session store; this row is the
// fire-and-forget persisted mirror, tombstoned via is_online, never deleted.
type Session struct {
	BaseModel

	AccountID  uint      `json:"account_id" gorm:"uniqueIndex"`
	IsOnline   bool      `json:"is_online"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
