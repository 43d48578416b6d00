package model

// SessionStatus はセッションの状態を表す。
type SessionStatus string

const (
	// SessionStatusActive は精算中のセッション。
	SessionStatusActive SessionStatus = "active"
	// SessionStatusClosed は締め済みのセッション。
	SessionStatusClosed SessionStatus = "closed"
)

// Session は割り勘セッションを表す。このサービスからは読み取り専用。
type Session struct {
	ID          string        `json:"id"`
	Description *string       `json:"description"`
	OwnerID     int64         `json:"owner_id"`
	Status      SessionStatus `json:"status"`
}
