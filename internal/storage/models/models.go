package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewProfile 面试完成后合成的最终档案
// 每个用户一条记录，新的面试完成后覆盖旧档案
// 数组类结果（教育、经历、技能等）整体存为 JSON 列
type InterviewProfile struct {
	ProfileID         string         `gorm:"type:char(36);primaryKey"`
	UserID            string         `gorm:"type:varchar(64);uniqueIndex:idx_profiles_user_unique"`
	SessionID         string         `gorm:"type:varchar(64);index:idx_profiles_session"`
	Headline          string         `gorm:"type:varchar(255)"`
	Summary           string         `gorm:"type:text"`
	Location          string         `gorm:"type:varchar(255)"`
	YearsOfExperience int            `gorm:"type:int"`
	ProfileJSON       datatypes.JSON `gorm:"type:json"` // 完整档案，含各模块数组
	ModuleSummaries   datatypes.JSON `gorm:"type:json"` // 各模块总结（结构化数据 + 亮点 + 质量备注）
	CompletenessScore int            `gorm:"type:int"`
	MissingSections   datatypes.JSON `gorm:"type:json"`
	CreatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt         time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (InterviewProfile) TableName() string {
	return "interview_profiles"
}

// InterviewSessionRecord 会话归档记录
// Redis 中的会话状态有 TTL，完成后的关键信息落库留痕
type InterviewSessionRecord struct {
	SessionID     string    `gorm:"type:varchar(64);primaryKey"`
	UserID        string    `gorm:"type:varchar(64);index:idx_session_records_user"`
	Status        string    `gorm:"type:varchar(32);index:idx_session_records_status"`
	TurnCount     int       `gorm:"type:int"`
	TranscriptKey string    `gorm:"type:varchar(255)"` // MinIO 中的归档对象名
	StartedAt     time.Time `gorm:"type:datetime(6)"`
	FinishedAt    time.Time `gorm:"type:datetime(6)"`
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (InterviewSessionRecord) TableName() string {
	return "interview_session_records"
}
