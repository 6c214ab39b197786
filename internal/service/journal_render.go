package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	journalMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	journalSanitizer = bluemonday.UGCPolicy()
)

// RenderJournal 将日记 Markdown 渲染为经过净化的 HTML。
func RenderJournal(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := journalMarkdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render journal: %w", err)
	}
	return string(journalSanitizer.SanitizeBytes(buf.Bytes())), nil
}
