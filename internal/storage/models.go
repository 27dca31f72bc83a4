package storage

import (
	"database/sql"
	"time"
)

// SessionInfo describes one stored session.
type SessionInfo struct {
	ID        int64
	StartTime time.Time
	Mode      string
	Config    *string
}

type sessionData struct {
	ID        int64
	StartTime time.Time
	Mode      string
	Config    sql.NullString
}

func (d sessionData) toInfo() *SessionInfo {
	info := SessionInfo{
		ID:        d.ID,
		StartTime: d.StartTime,
		Mode:      d.Mode,
	}
	if d.Config.Valid {
		info.Config = &d.Config.String
	}
	return &info
}

type recordRow struct {
	TMs      int64
	Actuator int
	Count    int
	Angle    int
}
