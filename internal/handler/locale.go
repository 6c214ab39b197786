package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/locale"
)

const localeContextKey = "__request_locale"

// LocaleMiddleware resolves request language and sets headers for downstream caching.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := requestLocale(c)
		c.Header("Content-Language", pref.HTMLLang)
		appendVaryHeader(c, "Accept-Language")
		c.Next()
	}
}

func requestLocale(c *gin.Context) locale.Preference {
	if cached, exists := c.Get(localeContextKey); exists {
		if pref, ok := cached.(locale.Preference); ok {
			return pref
		}
	}
	pref := locale.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
	c.Set(localeContextKey, pref)
	return pref
}

func appendVaryHeader(c *gin.Context, values ...string) {
	existing := c.Writer.Header().Values("Vary")
	seen := make(map[string]struct{})
	for _, header := range existing {
		for _, part := range strings.Split(header, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				seen[strings.ToLower(trimmed)] = struct{}{}
			}
		}
	}
	for _, value := range values {
		if _, ok := seen[strings.ToLower(value)]; ok {
			continue
		}
		c.Writer.Header().Add("Vary", value)
		seen[strings.ToLower(value)] = struct{}{}
	}
}
