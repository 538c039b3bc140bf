package constants

import "time"

const (
	// SessionStatusInProgress 会话进行中
	SessionStatusInProgress = "IN_PROGRESS"
	// SessionStatusCompleted 会话已完成（用户确认档案后）
	SessionStatusCompleted = "COMPLETED"

	// DefaultSessionTTL 会话在 Redis 中的默认存活时间，每次保存时刷新
	DefaultSessionTTL = 24 * time.Hour
)
