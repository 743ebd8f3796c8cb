package extract

import "strings"

// referenceVocabulary 是常见技术名的固定参考词表。
// 词表匹配只在简历中完全找不到技能段落时启用，命中顺序以词表为准。
var referenceVocabulary = []string{
	"JavaScript",
	"TypeScript",
	"Python",
	"Java",
	"Golang",
	"C#",
	"C++",
	"Ruby",
	"PHP",
	"Swift",
	"Kotlin",
	"Rust",
	"Scala",
	"React",
	"Angular",
	"Vue",
	"Node.js",
	"Express",
	"Django",
	"Flask",
	"Spring",
	"Rails",
	"Laravel",
	"HTML",
	"CSS",
	"SQL",
	"MySQL",
	"PostgreSQL",
	"MongoDB",
	"Redis",
	"Elasticsearch",
	"Kafka",
	"Docker",
	"Kubernetes",
	"Terraform",
	"Jenkins",
	"AWS",
	"Azure",
	"GCP",
	"Git",
	"GraphQL",
	"REST",
	"gRPC",
	"Linux",
	"Agile",
	"Scrum",
}

// scanVocabulary 在全文里做大小写不敏感的子串匹配，保留词表顺序。
func scanVocabulary(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, term := range referenceVocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			hits = append(hits, term)
		}
	}
	return hits
}
