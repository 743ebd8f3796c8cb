// Package match 实现技能重合度打分，是外部模型打分不可用时的确定性回退。
package match

import (
	"math"
	"strings"
)

// Result 是一次 (候选人, 职位) 打分的不可变结果。
type Result struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// 解释串中每侧最多列出的技能数量。
const explanationLimit = 3

// Score 按职位要求技能逐条匹配候选人技能，返回 0–100 的整数分与解释。
// 匹配采用大小写不敏感的双向子串包含："React" 能命中 "React.js"，反之亦然。
// 这刻意过度匹配（"Java" 会命中 "JavaScript"），是既有的启发式取舍，不要修。
func Score(candidateSkills, jobSkills []string) Result {
	if len(jobSkills) == 0 {
		return Result{Score: 0, Explanation: "No job skills defined"}
	}
	if len(candidateSkills) == 0 {
		return Result{Score: 0, Explanation: "No candidate skills found"}
	}

	var matched, missing []string
	for _, required := range jobSkills {
		if containsSkill(candidateSkills, required) {
			matched = append(matched, required)
		} else {
			missing = append(missing, required)
		}
	}

	score := int(math.Round(100 * float64(len(matched)) / float64(len(jobSkills))))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:       score,
		Explanation: explain(matched, missing),
	}
}

func containsSkill(candidateSkills []string, required string) bool {
	r := strings.ToLower(required)
	for _, c := range candidateSkills {
		cl := strings.ToLower(c)
		if strings.Contains(cl, r) || strings.Contains(r, cl) {
			return true
		}
	}
	return false
}

// explain 生成形如 "Strong in: React, SQL. Missing: Docker." 的解释串，
// 每侧最多取前 explanationLimit 个。
func explain(matched, missing []string) string {
	var b strings.Builder
	if len(matched) > 0 {
		b.WriteString("Strong in: ")
		b.WriteString(strings.Join(head(matched, explanationLimit), ", "))
		b.WriteString(".")
	}
	if len(missing) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("Missing: ")
		b.WriteString(strings.Join(head(missing, explanationLimit), ", "))
		b.WriteString(".")
	}
	return b.String()
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
