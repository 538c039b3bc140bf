package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// InterviewModulePrefix 面试模块
	InterviewModulePrefix = "interview"

	// EntitySession 面试会话实体
	EntitySession = "session"
	// EntityProfile 最终档案实体
	EntityProfile = "profile"

	// KeyInterviewSession 面试会话状态 (STRING, JSON序列化)
	// 格式: app:interview:session:{sessionID}
	KeyInterviewSession = AppPrefix + ":" + InterviewModulePrefix + ":" + EntitySession + ":%s"

	// KeyInterviewProfile 已生成档案的缓存 (STRING, JSON序列化)
	// 格式: app:interview:profile:{userID}
	KeyInterviewProfile = AppPrefix + ":" + InterviewModulePrefix + ":" + EntityProfile + ":%s"
)
