package service

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/logger"
	"github.com/moodlog/internal/metrics"
)

// ClassifierSource 按当前设置提供情感分类器。
type ClassifierSource interface {
	ClassifierFor(ctx context.Context) (insight.SentimentClassifier, string, error)
	ScorerOptions() insight.ScorerOptions
}

// InsightService 读取用户记录并交给 insight 包计算趋势、建议与月历。
// 只有读取记录失败会返回错误，情感查询失败在建议内部按中性分处理。
type InsightService struct {
	moods       *MoodEntryService
	classifiers ClassifierSource
	log         *logger.Logger
	now         func() time.Time
}

// NewInsightService 构造 InsightService
func NewInsightService(moods *MoodEntryService, classifiers ClassifierSource, log *logger.Logger) *InsightService {
	return &InsightService{moods: moods, classifiers: classifiers, log: log, now: time.Now}
}

// Trend 返回最近 30 天的心情趋势。
func (s *InsightService) Trend(ctx context.Context, userID uint) (insight.Trend, error) {
	now := s.now()
	entries, err := s.moods.ListSince(ctx, userID, insight.TrendWindowStart(now))
	if err != nil {
		return insight.Trend{}, fmt.Errorf("load trend records: %w", err)
	}
	return insight.BuildTrend(ToRecords(entries, now.Location()), now), nil
}

// Suggestions 基于全部历史活动计算活动建议。
func (s *InsightService) Suggestions(ctx context.Context, userID uint) ([]insight.Suggestion, error) {
	entries, err := s.moods.ListWithActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activity records: %w", err)
	}
	records := ToRecords(entries, s.now().Location())

	var (
		classifier insight.SentimentClassifier
		provider   string
		opts       insight.ScorerOptions
	)
	if s.classifiers != nil {
		classifier, provider, err = s.classifiers.ClassifierFor(ctx)
		if err != nil {
			// 设置读取失败时仍给出建议，所有活动按中性分计算
			s.log.Warn("load sentiment classifier failed", "user_id", userID, "error", err)
			classifier = nil
		}
		opts = s.classifiers.ScorerOptions()
	}
	if opts.Logger == nil {
		opts.Logger = s.log
	}
	opts.OnFallback = func(string, error) {
		metrics.SuggestionFallbacksTotal.Inc()
	}

	groups := 0
	opts.OnGroups = func(count int) {
		groups = count
		metrics.SuggestionGroups.Observe(float64(count))
	}

	suggestions := insight.NewScorer(classifier, opts).Suggest(ctx, records)
	s.log.Debug("suggestions computed", "user_id", userID, "provider", provider, "groups", groups, "returned", len(suggestions))
	return suggestions, nil
}

// Calendar 返回 month 所在月份的月历。
func (s *InsightService) Calendar(ctx context.Context, userID uint, month time.Time) (insight.MonthCalendar, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	// 月历首尾会补齐相邻月份，多取一周
	start := first.AddDate(0, 0, -7).Format(db.DateLayout)
	end := first.AddDate(0, 1, 6).Format(db.DateLayout)
	entries, err := s.moods.List(ctx, userID, start, end)
	if err != nil {
		return insight.MonthCalendar{}, fmt.Errorf("load calendar records: %w", err)
	}
	return insight.BuildMonthCalendar(ToRecords(entries, month.Location()), first), nil
}
