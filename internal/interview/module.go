package interview

// Module 面试采集模块，按固定顺序逐个采集
type Module string

const (
	ModuleBasicInfo     Module = "basic_info"
	ModuleEducation     Module = "education"
	ModuleExperience    Module = "experience"
	ModuleProject       Module = "project"
	ModuleSkill         Module = "skill"
	ModuleCertification Module = "certification"
	ModuleLanguage      Module = "language"
	// ModuleSummary 终态：全部模块完成后进入确认阶段
	ModuleSummary Module = "summary"
)

// ModuleOrder 采集顺序，summary 不在其中，作为终态单独处理
var ModuleOrder = []Module{
	ModuleBasicInfo,
	ModuleEducation,
	ModuleExperience,
	ModuleProject,
	ModuleSkill,
	ModuleCertification,
	ModuleLanguage,
}

// moduleDisplayNames 面向用户的模块名称
var moduleDisplayNames = map[Module]string{
	ModuleBasicInfo:     "Basic Information",
	ModuleEducation:     "Education",
	ModuleExperience:    "Work Experience",
	ModuleProject:       "Projects",
	ModuleSkill:         "Skills",
	ModuleCertification: "Certifications",
	ModuleLanguage:      "Languages",
	ModuleSummary:       "Summary",
}

// DisplayName 返回模块的展示名称
func (m Module) DisplayName() string {
	if name, ok := moduleDisplayNames[m]; ok {
		return name
	}
	return string(m)
}

// multiItemModules 允许采集多条记录的模块（basic_info 之外都是）
var multiItemModules = map[Module]bool{
	ModuleEducation:     true,
	ModuleExperience:    true,
	ModuleProject:       true,
	ModuleSkill:         true,
	ModuleCertification: true,
	ModuleLanguage:      true,
}

// IsMultiItem 模块是否允许多条记录
func (m Module) IsMultiItem() bool {
	return multiItemModules[m]
}

// NextModule 返回采集顺序中的下一个模块；当前为最后一个时返回 ("", false)
func NextModule(current Module) (Module, bool) {
	for i, m := range ModuleOrder {
		if m == current {
			if i+1 < len(ModuleOrder) {
				return ModuleOrder[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// 默认追问次数下限：不足下限时即使模型判定信息充分也继续追问
var defaultMinFollowUps = map[Module]int{
	ModuleBasicInfo:     0,
	ModuleEducation:     1,
	ModuleExperience:    1,
	ModuleProject:       1,
	ModuleSkill:         0,
	ModuleCertification: 0,
	ModuleLanguage:      0,
}

// 默认追问次数上限：达到上限后强制判定信息充分
var defaultMaxFollowUps = map[Module]int{
	ModuleBasicInfo:     2,
	ModuleEducation:     3,
	ModuleExperience:    4,
	ModuleProject:       3,
	ModuleSkill:         2,
	ModuleCertification: 2,
	ModuleLanguage:      2,
}

// FollowUpBudget 模块的追问次数上下限，可由配置覆盖默认值
type FollowUpBudget struct {
	overrideMin map[string]int
	overrideMax map[string]int
}

// NewFollowUpBudget 基于配置覆盖构造追问预算
func NewFollowUpBudget(minOverrides, maxOverrides map[string]int) *FollowUpBudget {
	return &FollowUpBudget{
		overrideMin: minOverrides,
		overrideMax: maxOverrides,
	}
}

// Min 模块的追问下限
func (b *FollowUpBudget) Min(m Module) int {
	if b != nil && b.overrideMin != nil {
		if v, ok := b.overrideMin[string(m)]; ok {
			return v
		}
	}
	return defaultMinFollowUps[m]
}

// Max 模块的追问上限
func (b *FollowUpBudget) Max(m Module) int {
	if b != nil && b.overrideMax != nil {
		if v, ok := b.overrideMax[string(m)]; ok {
			return v
		}
	}
	return defaultMaxFollowUps[m]
}

// RequiredFields 模块的必填字段列表，以 schema.go 的字段注册表为唯一来源
func (m Module) RequiredFields() []string {
	schema := GetModuleSchema(m)
	if schema == nil {
		return nil
	}
	return schema.RequiredFieldNames()
}

// profileKeyByModule 现有档案中各模块数据对应的键名
var profileKeyByModule = map[Module]string{
	ModuleEducation:     "educations",
	ModuleExperience:    "experiences",
	ModuleProject:       "projects",
	ModuleSkill:         "skills",
	ModuleCertification: "certifications",
	ModuleLanguage:      "languages",
}

// ProfileKey 模块在档案 JSON 中的键名；basic_info 没有独立键
func (m Module) ProfileKey() (string, bool) {
	key, ok := profileKeyByModule[m]
	return key, ok
}
