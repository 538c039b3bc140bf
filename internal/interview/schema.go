package interview

import "strings"

// FieldType 字段数据类型
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldText        FieldType = "text"
	FieldDate        FieldType = "date"
	FieldInt         FieldType = "int"
	FieldBoolean     FieldType = "boolean"
	FieldArrayString FieldType = "array[string]"
	FieldEnum        FieldType = "enum"
)

// FieldDefinition 单个字段的定义
type FieldDefinition struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	EnumValues  []string
	Format      string // 日期格式，如 "YYYY-MM"
}

// FollowUpTrigger 追问触发规则，提供给提问 Agent 作为参考
type FollowUpTrigger struct {
	Condition string
	Action    string
}

// ModuleSchema 模块的完整字段定义
// 设计原则：字段尽量丰富以便下游匹配，但不强制填满，
// 由分析 Agent 判断"信息是否足够"。
type ModuleSchema struct {
	Module             Module
	Fields             []FieldDefinition
	QualityCriteria    []string
	FollowUpTriggers   []FollowUpTrigger
	CollectionStrategy string
}

// RequiredFieldNames 返回标记为必填的字段名
func (s *ModuleSchema) RequiredFieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// OptionalFieldNames 返回可选字段名
func (s *ModuleSchema) OptionalFieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		if !f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// AllFieldNames 返回全部字段名，保持定义顺序
func (s *ModuleSchema) AllFieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// PromptDescription 生成提示词友好的字段描述，必填字段带 * 标记
func (s *ModuleSchema) PromptDescription() string {
	lines := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		mark := ""
		if f.Required {
			mark = "*"
		}
		lines = append(lines, "- "+f.Name+mark+": "+f.Description)
	}
	return strings.Join(lines, "\n")
}

var experienceSchema = ModuleSchema{
	Module: ModuleExperience,
	Fields: []FieldDefinition{
		{Name: "company", Type: FieldString, Required: true, Description: "Company name"},
		{Name: "company_type", Type: FieldString, Description: "Company type: Big Tech / Unicorn / Startup / MNC / State-owned"},
		{Name: "company_size", Type: FieldString, Description: "Company size: e.g., 1000+ employees"},
		{Name: "industry", Type: FieldString, Description: "Industry: Finance / E-commerce / Social / Gaming / Enterprise, etc."},
		{Name: "title", Type: FieldString, Required: true, Description: "Job title"},
		{Name: "level", Type: FieldString, Description: "Level: e.g., P6 / Senior Engineer / Tech Lead"},
		{Name: "employment_type", Type: FieldEnum, EnumValues: []string{"FULL_TIME", "PART_TIME", "CONTRACT", "INTERNSHIP"}, Description: "Employment type"},
		{Name: "location", Type: FieldString, Description: "Work location"},
		{Name: "start_date", Type: FieldDate, Required: true, Format: "YYYY-MM", Description: "Start date"},
		{Name: "end_date", Type: FieldDate, Format: "YYYY-MM", Description: "End date"},
		{Name: "is_current", Type: FieldBoolean, Description: "Is current position"},
		{Name: "duration_months", Type: FieldInt, Description: "Duration in months"},
		{Name: "description", Type: FieldText, Required: true, Description: "Job responsibilities, must be specific"},
		{Name: "achievements", Type: FieldArrayString, Description: "List of achievements, must be quantified"},
		{Name: "technologies", Type: FieldArrayString, Description: "Tech stack used"},
		{Name: "team_size", Type: FieldString, Description: "Team size: e.g., led a team of 5"},
		{Name: "report_to", Type: FieldString, Description: "Reporting to: e.g., reported to CTO"},
		{Name: "key_projects", Type: FieldArrayString, Description: "Key projects owned"},
		{Name: "business_impact", Type: FieldText, Description: "Business impact: e.g., supported XX business line"},
	},
	QualityCriteria: []string{
		"Achievements must include quantified data (numbers, percentages, amounts)",
		"Tech stack must be specific to framework/tool level, not just 'backend development'",
		"Must describe YOUR specific responsibilities, not the team's responsibilities",
		"Must have business context: what does this project/system do",
		"If management role, must describe team size and management scope",
	},
	FollowUpTriggers: []FollowUpTrigger{
		{Condition: "achievements is empty or no quantified data", Action: "Ask for specific results and data"},
		{Condition: "technologies has fewer than 3 items", Action: "Ask for complete tech stack"},
		{Condition: "description is less than 50 characters", Action: "Ask for specific responsibilities"},
		{Condition: "no team_size and title contains 'lead/manager'", Action: "Ask for team size"},
	},
	CollectionStrategy: "Start with most recent job, collect comprehensive details before moving to next",
}

var projectSchema = ModuleSchema{
	Module: ModuleProject,
	Fields: []FieldDefinition{
		{Name: "name", Type: FieldString, Required: true, Description: "Project name"},
		{Name: "project_type", Type: FieldString, Description: "Project type: Work project / Open source / Personal / Competition"},
		{Name: "role", Type: FieldString, Description: "Your role: Core developer / Lead / Contributor"},
		{Name: "start_date", Type: FieldDate, Format: "YYYY-MM", Description: "Start date"},
		{Name: "end_date", Type: FieldDate, Format: "YYYY-MM", Description: "End date"},
		{Name: "is_current", Type: FieldBoolean, Description: "Is ongoing project"},
		{Name: "description", Type: FieldText, Required: true, Description: "Project description: background + goal + your contribution"},
		{Name: "your_contribution", Type: FieldText, Description: "Your specific contribution (distinct from team contribution)"},
		{Name: "technologies", Type: FieldArrayString, Description: "Tech stack used"},
		{Name: "highlights", Type: FieldArrayString, Description: "Technical highlights / innovations"},
		{Name: "challenges", Type: FieldText, Description: "Technical challenges encountered"},
		{Name: "solutions", Type: FieldText, Description: "How they were solved"},
		{Name: "results", Type: FieldText, Description: "Project outcomes / business value"},
		{Name: "team_size", Type: FieldString, Description: "Project team size"},
		{Name: "url", Type: FieldString, Description: "Project URL"},
		{Name: "repo_url", Type: FieldString, Description: "Code repository URL"},
	},
	QualityCriteria: []string{
		"Must explain project background: why this project was done",
		"Must explain your specific contribution, not what the whole team did",
		"Technical highlights should be specific: what technology solved what problem",
		"Best to have quantified results: performance improved X%, supported X users",
	},
	FollowUpTriggers: []FollowUpTrigger{
		{Condition: "your_contribution is empty", Action: "Ask what you specifically worked on"},
		{Condition: "no technologies", Action: "Ask what technologies were used"},
		{Condition: "no challenges or solutions", Action: "Ask about technical challenges encountered"},
	},
	CollectionStrategy: "Ask about most proud/impactful project first, then others",
}

var educationSchema = ModuleSchema{
	Module: ModuleEducation,
	Fields: []FieldDefinition{
		{Name: "school", Type: FieldString, Required: true, Description: "School name"},
		{Name: "degree", Type: FieldString, Required: true, Description: "Degree: Bachelor / Master / PhD / Other"},
		{Name: "field_of_study", Type: FieldString, Description: "Major / Field of study"},
		{Name: "location", Type: FieldString, Description: "School location"},
		{Name: "start_date", Type: FieldDate, Format: "YYYY-MM", Description: "Start date"},
		{Name: "end_date", Type: FieldDate, Format: "YYYY-MM", Description: "End date / Expected graduation"},
		{Name: "is_current", Type: FieldBoolean, Description: "Currently studying"},
		{Name: "gpa", Type: FieldString, Description: "GPA or ranking"},
		{Name: "description", Type: FieldText, Description: "Additional description"},
		{Name: "activities", Type: FieldArrayString, Description: "Campus activities, honors, scholarships"},
		{Name: "thesis_topic", Type: FieldString, Description: "Thesis topic / Research direction (for graduate students)"},
		{Name: "relevant_courses", Type: FieldArrayString, Description: "Relevant coursework"},
		{Name: "honors", Type: FieldArrayString, Description: "Honors and awards"},
	},
	QualityCriteria: []string{
		"School and degree are required",
		"If outstanding GPA or honors, should be recorded",
		"Graduate students should record research direction",
	},
	FollowUpTriggers: []FollowUpTrigger{
		{Condition: "degree is Master/PhD and no thesis_topic", Action: "Ask about research direction"},
		{Condition: "high GPA mentioned but not recorded", Action: "Ask for specific GPA"},
	},
	CollectionStrategy: "Start with highest degree, then work backwards",
}

var skillSchema = ModuleSchema{
	Module: ModuleSkill,
	Fields: []FieldDefinition{
		{Name: "name", Type: FieldString, Required: true, Description: "Skill name"},
		{Name: "category", Type: FieldString, Description: "Category: Programming Language / Framework / Database / Tool / Soft Skill"},
		{Name: "level", Type: FieldEnum, Required: true, EnumValues: []string{"BEGINNER", "INTERMEDIATE", "ADVANCED", "EXPERT"}, Description: "Proficiency level"},
		{Name: "years_of_experience", Type: FieldInt, Description: "Years of experience"},
		{Name: "last_used", Type: FieldString, Description: "When last used"},
		{Name: "context", Type: FieldString, Description: "Context: which projects used this skill"},
	},
	QualityCriteria: []string{
		"Skills should be specific: Java, not just 'programming'",
		"Must differentiate proficiency levels",
		"Core skills should have years of experience and context",
	},
	FollowUpTriggers: []FollowUpTrigger{
		{Condition: "level not specified", Action: "Ask for proficiency level"},
		{Condition: "core skill without years_of_experience", Action: "Ask how long used"},
	},
	CollectionStrategy: "Ask about core tech stack first, then other tools/skills",
}

var certificationSchema = ModuleSchema{
	Module: ModuleCertification,
	Fields: []FieldDefinition{
		{Name: "name", Type: FieldString, Required: true, Description: "Certification name"},
		{Name: "issuer", Type: FieldString, Required: true, Description: "Issuing organization"},
		{Name: "issue_date", Type: FieldDate, Format: "YYYY-MM", Description: "Issue date"},
		{Name: "expiration_date", Type: FieldDate, Format: "YYYY-MM", Description: "Expiration date"},
		{Name: "credential_id", Type: FieldString, Description: "Credential ID"},
		{Name: "credential_url", Type: FieldString, Description: "Verification URL"},
	},
	QualityCriteria: []string{
		"Certification name and issuer are required",
		"Include issue date when possible",
	},
	CollectionStrategy: "Ask about most relevant/impressive certifications first",
}

var languageSchema = ModuleSchema{
	Module: ModuleLanguage,
	Fields: []FieldDefinition{
		{Name: "language", Type: FieldString, Required: true, Description: "Language name"},
		{Name: "proficiency", Type: FieldEnum, Required: true, EnumValues: []string{"Native", "Fluent", "Professional", "Basic"}, Description: "Proficiency level"},
		{Name: "certification", Type: FieldString, Description: "Language certification e.g., TOEFL / IELTS"},
	},
	QualityCriteria: []string{
		"Language and proficiency are required",
		"Include certification if applicable",
	},
	CollectionStrategy: "Ask about all languages spoken",
}

var basicInfoSchema = ModuleSchema{
	Module: ModuleBasicInfo,
	Fields: []FieldDefinition{
		{Name: "headline", Type: FieldString, Description: "Professional title: e.g., 'Senior Backend Engineer'"},
		{Name: "summary", Type: FieldText, Description: "Personal summary: 3-5 sentences summarizing background and strengths"},
		{Name: "location", Type: FieldString, Description: "Current location"},
		{Name: "years_of_experience", Type: FieldInt, Description: "Total years of work experience"},
		{Name: "current_status", Type: FieldString, Description: "Current status: Employed / Unemployed / Student"},
		{Name: "job_seeking_status", Type: FieldString, Description: "Job seeking intent: Actively looking / Open to opportunities / Not looking"},
	},
	QualityCriteria: []string{
		"Headline should accurately describe professional identity",
		"Summary should be concise but comprehensive",
	},
	CollectionStrategy: "Collect during initial conversation",
}

// moduleSchemas 模块 schema 注册表
var moduleSchemas = map[Module]*ModuleSchema{
	ModuleBasicInfo:     &basicInfoSchema,
	ModuleEducation:     &educationSchema,
	ModuleExperience:    &experienceSchema,
	ModuleProject:       &projectSchema,
	ModuleSkill:         &skillSchema,
	ModuleCertification: &certificationSchema,
	ModuleLanguage:      &languageSchema,
}

// GetModuleSchema 获取模块的 schema 定义，未知模块返回 nil
func GetModuleSchema(m Module) *ModuleSchema {
	return moduleSchemas[m]
}

// schemaJSONTemplates 提供给 LLM 做结构化抽取的 JSON 模板
var schemaJSONTemplates = map[Module]string{
	ModuleExperience: `{
  "company": "Company name",
  "company_type": "Big Tech/Unicorn/Startup/MNC/State-owned",
  "company_size": "e.g., 1000+ employees",
  "industry": "Industry sector",
  "title": "Job title",
  "level": "Level/Grade",
  "employment_type": "FULL_TIME/PART_TIME/CONTRACT/INTERNSHIP",
  "location": "Location",
  "start_date": "YYYY-MM",
  "end_date": "YYYY-MM or null if current",
  "is_current": true/false,
  "description": "Detailed responsibilities",
  "achievements": ["Quantified achievement 1", "Quantified achievement 2"],
  "technologies": ["Tech 1", "Tech 2"],
  "team_size": "e.g., led team of 5",
  "key_projects": ["Project 1", "Project 2"],
  "business_impact": "Business impact description"
}`,
	ModuleProject: `{
  "name": "Project name",
  "project_type": "Work/Open Source/Personal/Competition",
  "role": "Your role",
  "start_date": "YYYY-MM",
  "end_date": "YYYY-MM",
  "is_current": true/false,
  "description": "Project description",
  "your_contribution": "Your specific contribution",
  "technologies": ["Tech 1", "Tech 2"],
  "highlights": ["Technical highlight 1", "Technical highlight 2"],
  "challenges": "Technical challenges",
  "solutions": "How solved",
  "results": "Outcomes/Business value",
  "team_size": "Team size",
  "url": "Project URL",
  "repo_url": "Repository URL"
}`,
	ModuleEducation: `{
  "school": "School name",
  "degree": "Bachelor/Master/PhD",
  "field_of_study": "Major",
  "location": "Location",
  "start_date": "YYYY-MM",
  "end_date": "YYYY-MM",
  "is_current": true/false,
  "gpa": "GPA or ranking",
  "description": "Description",
  "activities": ["Activity 1", "Activity 2"],
  "thesis_topic": "Research direction (if applicable)",
  "relevant_courses": ["Course 1", "Course 2"],
  "honors": ["Honor 1", "Honor 2"]
}`,
	ModuleSkill: `{
  "name": "Skill name",
  "category": "Programming Language/Framework/Database/Tool/Soft Skill",
  "level": "BEGINNER/INTERMEDIATE/ADVANCED/EXPERT",
  "years_of_experience": number,
  "last_used": "When last used",
  "context": "Usage context"
}`,
	ModuleCertification: `{
  "name": "Certification name",
  "issuer": "Issuing organization",
  "issue_date": "YYYY-MM",
  "expiration_date": "YYYY-MM or null",
  "credential_id": "ID",
  "credential_url": "URL"
}`,
	ModuleLanguage: `{
  "language": "Language name",
  "proficiency": "Native/Fluent/Professional/Basic",
  "certification": "e.g., TOEFL 110"
}`,
	ModuleBasicInfo: `{
  "headline": "Professional title",
  "summary": "Personal summary",
  "location": "Location",
  "years_of_experience": number,
  "current_status": "Employed/Unemployed/Student",
  "job_seeking_status": "Actively looking/Open/Not looking"
}`,
}

// SchemaJSONTemplate 返回模块的抽取模板，未知模块返回 "{}"
func SchemaJSONTemplate(m Module) string {
	if tpl, ok := schemaJSONTemplates[m]; ok {
		return tpl
	}
	return "{}"
}
