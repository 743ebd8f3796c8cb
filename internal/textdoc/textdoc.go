// Package textdoc 把上传的简历文件转成纯文本，供后续解析使用。
package textdoc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlainText = "text/plain"
	MIMEPDF       = "application/pdf"
	MIMEDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType 表示文件类型不在支持范围内。
type ErrUnsupportedType struct {
	MIME string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MIME)
}

// IsSupportedMIME 判断上传的 Content-Type 是否可以被解析。
func IsSupportedMIME(mime string) bool {
	switch mime {
	case MIMEPlainText, MIMEPDF, MIMEDocx:
		return true
	}
	return false
}

// ExtractText 按 MIME 类型把文件内容转成纯文本。
func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MIMEPlainText:
		return string(data), nil
	case MIMEPDF:
		return extractPDFText(data)
	case MIMEDocx:
		return extractDocxText(data)
	default:
		return "", &ErrUnsupportedType{MIME: mime}
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 单页解析失败时跳过该页，尽量恢复其余内容。
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}
