package extract

import (
	"regexp"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// 电话匹配按顺序尝试，命中即停。
	phonePatterns = []*regexp.Regexp{
		// 可带国家码的 (区号)-前缀-后四位
		regexp.MustCompile(`(\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}`),
		// 更宽松的 3-3-4 分组
		regexp.MustCompile(`\d{3}[\s.\-]?\d{3}[\s.\-]?\d{4}`),
		// 国际格式：+国家码 空格分组
		regexp.MustCompile(`\+\d{1,3}\s\d{3,4}\s\d{3,4}\s\d{3,4}`),
	}
)

// ExtractEmail 返回文本中首个邮箱地址，找不到返回空串。
func ExtractEmail(text string) string {
	return reEmail.FindString(text)
}

// ExtractPhone 返回文本中首个电话号码，找不到返回空串。
func ExtractPhone(text string) string {
	for _, re := range phonePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// ExtractName 在前 maxLines 个非空行里找姓名：
// 行长超过 2、不含 @、不以 + 或数字开头、不含 resume/cv/curriculum 字样。
// 没有满足条件的行时返回空串。
func ExtractName(text string, maxLines int) string {
	examined := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		examined++
		if examined > maxLines {
			break
		}
		if isCandidateName(trimmed) {
			return trimmed
		}
	}
	return ""
}

func isCandidateName(line string) bool {
	if len([]rune(line)) <= 2 {
		return false
	}
	if strings.Contains(line, "@") {
		return false
	}
	first := rune(line[0])
	if first == '+' || (first >= '0' && first <= '9') {
		return false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "resume") || strings.Contains(lower, "cv") || strings.Contains(lower, "curriculum") {
		return false
	}
	return true
}
