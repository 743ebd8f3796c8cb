// Package extract 实现无外部依赖的简历文本启发式解析。
// 它是外部模型调用失败时的确定性回退路径：只接受纯文本输入，
// 永远返回尽力而为的结果，绝不报错。
package extract

// Experience 描述一段工作经历。
type Experience struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education 描述一条教育背景。
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Candidate 是从简历文本中恢复出的结构化候选人信息。
// 所有字段均可为空；Skills 保插入顺序且不含完全相同的重复项。
type Candidate struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
}

// 姓名扫描深度：正文回退看前 5 行，全文档回退看前 10 行。
const (
	nameScanBody     = 5
	nameScanDocument = 10
)

// Extract 对整份简历文本执行启发式解析。
func Extract(text string) Candidate {
	normalized := Normalize(text)

	skills, sectionFound := extractSkillsFromSections(normalized)
	nameDepth := nameScanBody
	if !sectionFound {
		skills = scanVocabulary(text)
		nameDepth = nameScanDocument
	}

	return Candidate{
		Name:       ExtractName(normalized, nameDepth),
		Email:      ExtractEmail(text),
		Phone:      ExtractPhone(text),
		Skills:     skills,
		Experience: []Experience{},
		Education:  []Education{},
	}
}
