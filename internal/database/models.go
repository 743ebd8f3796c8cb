package database

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示招聘端的账号信息。
type User struct {
	gorm.Model
	Username           string `gorm:"uniqueIndex;size:64"`
	PasswordHash       string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// ParseSource 取值：候选人数据来自外部模型还是启发式回退。
const (
	ParseSourceModel     = "model"
	ParseSourceHeuristic = "heuristic"
)

// Candidate 表示一名从上传简历中解析出的候选人。
// Email 由存储层保证唯一（非空约束由解析流程把关）。
// MatchVersion 是匹配分重算用的乐观锁版本号。
type Candidate struct {
	gorm.Model
	Name         string         `gorm:"size:255"`
	Email        string         `gorm:"uniqueIndex;size:255"`
	Phone        string         `gorm:"size:64"`
	Profile      datatypes.JSON `gorm:"type:jsonb"` // JSONB 存储 skills/experience/education
	ResumeKey    string         `gorm:"size:512"`
	ParseSource  string         `gorm:"size:16"`
	MatchVersion uint           `gorm:"default:0"`
	Matches      []MatchScore   `gorm:"constraint:OnDelete:CASCADE"`
}

// CandidateProfile 是 Candidate.Profile 的 JSON 结构。
type CandidateProfile struct {
	Skills     []string           `json:"skills"`
	Experience []ProfileRole      `json:"experience"`
	Education  []ProfileEducation `json:"education"`
}

// ProfileRole 描述一段工作经历。
type ProfileRole struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// ProfileEducation 描述一条教育背景。
type ProfileEducation struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// DecodeProfile 解析 JSONB 字段；内容缺失或损坏时返回零值而不是报错。
func (c *Candidate) DecodeProfile() CandidateProfile {
	var profile CandidateProfile
	if len(c.Profile) == 0 {
		return profile
	}
	_ = json.Unmarshal(c.Profile, &profile)
	return profile
}

// EncodeProfile 把档案编码回 JSONB 字段。
func EncodeProfile(profile CandidateProfile) (datatypes.JSON, error) {
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.Experience == nil {
		profile.Experience = []ProfileRole{}
	}
	if profile.Education == nil {
		profile.Education = []ProfileEducation{}
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// Job 表示一个职位，Skills 以 JSONB 字符串数组存储。
// Active 不能带列默认值：GORM 插入时会省略零值字段，false 会被默认值吃掉。
// 是否在招由创建方显式赋值。
type Job struct {
	gorm.Model
	Title       string         `gorm:"size:255"`
	Description string         `gorm:"type:text"`
	Skills      datatypes.JSON `gorm:"type:jsonb"`
	Active      bool           `gorm:"index"`
}

// SkillList 解析职位要求的技能数组；损坏时返回空列表。
func (j *Job) SkillList() []string {
	var skills []string
	if len(j.Skills) == 0 {
		return skills
	}
	_ = json.Unmarshal(j.Skills, &skills)
	return skills
}

// MatchScore 是某候选人对某职位的一次打分结果，计算后不再修改，
// 只会在重算时被整组替换。
type MatchScore struct {
	gorm.Model
	CandidateID uint   `gorm:"index"`
	JobID       uint   `gorm:"index"`
	Score       int
	Explanation string `gorm:"size:512"`
	Source      string `gorm:"size:16"`
}
