// Package locale 解析请求语言，服务端文案只提供英文与中文两种。
package locale

import "strings"

const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
)

// Preference 是解析后的语言偏好。
type Preference struct {
	Language string
	Locale   string
	HTMLLang string
}

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "zh") || trimmed == "cn" {
		return LanguageChinese
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 按 Accept-Language 中出现的先后顺序取第一个可识别的语言。
func LanguageFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if language := NormalizeLanguage(tag); language != "" {
			return language
		}
	}
	return ""
}

// Resolve 依次尝试显式指定的语言与 Accept-Language，默认英文。
func Resolve(explicit, acceptLanguage string) Preference {
	language := NormalizeLanguage(explicit)
	if language == "" {
		language = LanguageFromAcceptLanguage(acceptLanguage)
	}
	return PreferenceForLanguage(language)
}

func PreferenceForLanguage(language string) Preference {
	if NormalizeLanguage(language) == LanguageChinese {
		return Preference{Language: LanguageChinese, Locale: "zh_CN", HTMLLang: "zh-CN"}
	}
	return Preference{Language: LanguageEnglish, Locale: "en_US", HTMLLang: "en-US"}
}
