package extract

import (
	"regexp"
	"strings"
)

// 规范化后的列表标记，换行本身是最重要的结构信号，绝不会被移除。
const bulletMarker = "• "

var (
	reBulletGlyph     = regexp.MustCompile(`[•◦▪▫‣⁃][ \t]*`)
	reLeadingDash     = regexp.MustCompile(`(?m)^[ \t]*[-–—][ \t]*`)
	reLeadingAsterisk = regexp.MustCompile(`(?m)^[ \t]*\*[ \t]*`)
	reNumberedMarker  = regexp.MustCompile(`(?m)^[ \t]*(\d+\.)[ \t]*`)
	reSpaceRun        = regexp.MustCompile(`[ \t]+`)
	reBlankRun        = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
)

// Normalize 统一简历文本中的列表标记与空白。
// 各类圆点符号、行首的连字符/长短破折号/星号都折叠成统一的 bulletMarker，
// 编号标记（"1." 等）保留但强制只跟一个空格。
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reBulletGlyph.ReplaceAllString(text, bulletMarker)
	text = reLeadingDash.ReplaceAllString(text, bulletMarker)
	text = reLeadingAsterisk.ReplaceAllString(text, bulletMarker)
	text = reNumberedMarker.ReplaceAllString(text, "$1 ")
	text = reSpaceRun.ReplaceAllString(text, " ")
	text = reBlankRun.ReplaceAllString(text, "\n\n")
	return text
}
