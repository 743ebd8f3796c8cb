package ai

import (
	"fmt"
	"strings"
)

func parsePrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a resume parser. Extract structured data from the resume text below.\n")
	b.WriteString("Respond with JSON only, no prose, using exactly this shape:\n")
	b.WriteString(`{"name":"","email":"","phone":"","skills":[],` +
		`"experience":[{"job_title":"","company":"","duration":"","description":""}],` +
		`"education":[{"degree":"","institution":"","year":""}]}`)
	b.WriteString("\nUse empty strings or empty arrays for anything not present.\n\nRESUME:\n")
	b.WriteString(text)
	return b.String()
}

func scorePrompt(candidateSkills, jobSkills []string) string {
	return fmt.Sprintf(
		"You are a recruiter. Rate how well the candidate skills cover the job requirements.\n"+
			"Respond with JSON only: {\"score\":0,\"explanation\":\"\"} where score is an integer 0-100.\n"+
			"Candidate skills: %s\nJob requirements: %s\n",
		strings.Join(candidateSkills, ", "),
		strings.Join(jobSkills, ", "),
	)
}

// cleanJSON 去掉模型输出外层的 ```json / ``` 栅栏。
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
