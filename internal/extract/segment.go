package extract

import (
	"regexp"
	"strings"
)

var (
	reSkillsHeader = regexp.MustCompile(`^(technical skills?|core competencies|skills?|technologies|expertise|proficiencies|capabilities)\b`)
	reSectionEnd   = regexp.MustCompile(`^(experience|education|projects?|certifications?)\b`)

	reNumberedLine = regexp.MustCompile(`^\d+\. `)
	reTokenSplit   = regexp.MustCompile(`[,;|/]`)
	reEdgeNonWord  = regexp.MustCompile(`^\W+|\W+$`)
)

// skillSet 保序去重：完全相同的字符串只保留一次，大小写不同的变体视为不同条目。
type skillSet struct {
	seen  map[string]struct{}
	items []string
}

func newSkillSet() *skillSet {
	return &skillSet{seen: map[string]struct{}{}}
}

func (s *skillSet) add(skill string) {
	if skill == "" {
		return
	}
	if _, ok := s.seen[skill]; ok {
		return
	}
	s.seen[skill] = struct{}{}
	s.items = append(s.items, skill)
}

// isSkillsHeader 判断一行是否是技能段落的标题。
func isSkillsHeader(line string) bool {
	return reSkillsHeader.MatchString(headerKey(line))
}

// isSectionTerminator 判断一行是否开启了下一个段落（经历/教育等）。
func isSectionTerminator(line string) bool {
	return reSectionEnd.MatchString(headerKey(line))
}

func headerKey(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, bulletMarker)
	line = strings.TrimSuffix(line, ":")
	return strings.ToLower(strings.TrimSpace(line))
}

// skillsSectionLines 自上而下扫描，返回技能标题与第一个终止标题之间的行。
// 遇到第一个终止标题后立即停止，不会继续寻找后面的技能段落。
func skillsSectionLines(text string) ([]string, bool) {
	var collected []string
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !inSection {
			if isSkillsHeader(trimmed) {
				inSection = true
			}
			continue
		}
		if isSectionTerminator(trimmed) {
			return collected, true
		}
		collected = append(collected, trimmed)
	}

	if !inSection {
		return nil, false
	}
	return collected, true
}

// collectTokens 对技能段内的一行应用优先级规则，把提取出的 token 写入集合。
// 规则顺序：列表标记行 → 编号行 → 含逗号/分号的行 → 无冒号的整行；
// 仅含冒号而没有任何分隔符的行被视为标签（如 "Languages: ..."），整体丢弃。
// 这是已知的回退质量限制，不是需要悄悄修掉的缺陷。
func collectTokens(line string, set *skillSet) {
	switch {
	case strings.HasPrefix(line, bulletMarker):
		splitFragments(strings.TrimPrefix(line, bulletMarker), set)
	case reNumberedLine.MatchString(line):
		splitFragments(reNumberedLine.ReplaceAllString(line, ""), set)
	case strings.ContainsAny(line, ",;"):
		splitFragments(line, set)
	case !strings.Contains(line, ":"):
		set.add(cleanFragment(line))
	}
}

func splitFragments(s string, set *skillSet) {
	for _, frag := range reTokenSplit.Split(s, -1) {
		set.add(cleanFragment(frag))
	}
}

// cleanFragment 清理单个候选 token；清理后不足 2 个字符的碎片被丢弃。
func cleanFragment(frag string) string {
	frag = strings.TrimSpace(frag)
	frag = strings.Trim(frag, "()[]")
	frag = reEdgeNonWord.ReplaceAllString(frag, "")
	if len([]rune(frag)) < 2 {
		return ""
	}
	return frag
}

// ExtractSkills 从原始简历文本中提取技能列表。
// 完全找不到技能段落时回退到参考词表的全文匹配；任何情况下都不会报错。
func ExtractSkills(text string) []string {
	skills, found := extractSkillsFromSections(Normalize(text))
	if !found {
		return scanVocabulary(text)
	}
	return skills
}

func extractSkillsFromSections(normalized string) ([]string, bool) {
	lines, found := skillsSectionLines(normalized)
	if !found {
		return nil, false
	}
	set := newSkillSet()
	for _, line := range lines {
		collectTokens(line, set)
	}
	return set.items, true
}
