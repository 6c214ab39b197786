package sentiment

import (
	"strings"
	"unicode/utf8"

	"github.com/moodlog/internal/logger"
)

const maxLogSnippetRunes = 512

// logExchange 输出请求与响应的关键信息，方便排查模型行为。
func logExchange(log *logger.Logger, provider, phase, content string) {
	if log == nil {
		return
	}
	trimmed := strings.TrimSpace(content)
	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxLogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxLogSnippetRunes]) + "…(truncated)"
	}
	if snippet == "" {
		snippet = "<empty>"
	}
	log.Debug("sentiment exchange", "provider", provider, "phase", phase, "runes", runeCount, "content", snippet)
}
