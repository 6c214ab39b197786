package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
)

func trendPointPayload(p *insight.TrendPoint) gin.H {
	if p == nil {
		return nil
	}
	return gin.H{
		"date":         p.Date.Format(db.DateLayout),
		"display_date": p.DisplayDate,
		"score":        p.Score,
		"mood":         string(p.Mood),
	}
}

// Trend 返回最近 30 天的心情趋势
func (a *API) Trend(c *gin.Context) {
	trend, err := a.insights.Trend(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取心情趋势失败")
		return
	}

	points := make([]gin.H, 0, len(trend.Points))
	for i := range trend.Points {
		points = append(points, trendPointPayload(&trend.Points[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"window_start": trend.WindowStart.Format(db.DateLayout),
		"points":       points,
		"best":         trendPointPayload(trend.Best),
		"worst":        trendPointPayload(trend.Worst),
	})
}

// Suggestions 返回最多 5 条活动建议，说明文字按请求语言输出
func (a *API) Suggestions(c *gin.Context) {
	suggestions, err := a.insights.Suggestions(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取活动建议失败")
		return
	}

	language := requestLocale(c).Language
	items := make([]gin.H, 0, len(suggestions))
	for _, s := range suggestions {
		items = append(items, gin.H{
			"activity":         s.Activity,
			"score":            s.Score,
			"base_score":       s.BaseScore,
			"sentiment_score":  s.SentimentScore,
			"sentiment":        string(s.Sentiment),
			"booster_count":    s.BoosterCount,
			"occurrence_count": s.OccurrenceCount,
			"explanation":      s.Explain(language),
		})
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": items})
}

// Calendar 返回月历，month 缺省为当前月份
func (a *API) Calendar(c *gin.Context) {
	month := time.Now().In(a.loc)
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, a.loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, "月份格式应为 YYYY-MM")
			return
		}
		month = parsed
	}

	cal, err := a.insights.Calendar(c.Request.Context(), currentUserID(c), month)
	if err != nil {
		a.handleServiceError(c, err, "获取月历失败")
		return
	}

	weeks := make([][]gin.H, 0, len(cal.Weeks))
	for _, week := range cal.Weeks {
		days := make([]gin.H, 0, len(week))
		for _, day := range week {
			days = append(days, gin.H{
				"date":      day.Date.Format(db.DateLayout),
				"day":       day.Day,
				"mood":      string(day.Mood),
				"emoji":     day.Emoji,
				"score":     day.Score,
				"has_entry": day.HasEntry,
				"in_month":  day.InMonth,
			})
		}
		weeks = append(weeks, days)
	}

	counts := make(map[string]int, len(cal.Summary.MoodCounts))
	for mood, count := range cal.Summary.MoodCounts {
		counts[string(mood)] = count
	}
	c.JSON(http.StatusOK, gin.H{
		"month": cal.Month.Format("2006-01"),
		"weeks": weeks,
		"summary": gin.H{
			"logged_days":   cal.Summary.LoggedDays,
			"average_score": cal.Summary.AverageScore,
			"mood_counts":   counts,
		},
	})
}

// Sleep 计算入睡与起床之间的时长，跨午夜时顺延
func (a *API) Sleep(c *gin.Context) {
	duration, err := insight.SleepDuration(c.Query("bedtime"), c.Query("wakeup"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "时间格式应为 HH:MM")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"minutes": int(duration.Minutes()),
		"display": insight.FormatSleepDuration(duration),
	})
}
