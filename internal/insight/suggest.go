package insight

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/moodlog/internal/locale"
	"github.com/moodlog/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

const (
	// MaxSuggestions 为返回的建议条数上限。
	MaxSuggestions = 5
	// DefaultLookupConcurrency 为同时进行的情感查询数量上限。
	DefaultLookupConcurrency = 4
	// DefaultLookupTimeout 为单次情感查询的超时。
	DefaultLookupTimeout = 10 * time.Second
)

// Sentiment 为情感分类的标签。
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ErrUnknownSentiment 表示分类结果不是三种标签之一。
var ErrUnknownSentiment = errors.New("unknown sentiment label")

// Valid 判断标签是否为三种已知标签之一。
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Score 将标签映射为 [0,1] 的分数，未知标签按中性处理。
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 1.0
	case SentimentNegative:
		return 0.0
	default:
		return 0.5
	}
}

// SentimentClassifier 对一段文本进行情感分类。
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}

// SentimentClassifierFunc 让普通函数满足 SentimentClassifier。
type SentimentClassifierFunc func(ctx context.Context, text string) (Sentiment, error)

// Classify 调用函数本身。
func (f SentimentClassifierFunc) Classify(ctx context.Context, text string) (Sentiment, error) {
	return f(ctx, text)
}

// ActivityGroup 汇总大小写不敏感相同描述的活动。
type ActivityGroup struct {
	Key             string
	Label           string
	OccurrenceCount int
	BoosterCount    int
}

// BaseScore 为被标记为提升能量的比例。
func (g ActivityGroup) BaseScore() float64 {
	if g.OccurrenceCount == 0 {
		return 0
	}
	return float64(g.BoosterCount) / float64(g.OccurrenceCount)
}

// Suggestion 是排序后的一条活动建议。
type Suggestion struct {
	Activity        string
	Score           float64
	BaseScore       float64
	SentimentScore  float64
	Sentiment       Sentiment
	Fallback        bool
	BoosterCount    int
	OccurrenceCount int
	Explanation     string
}

// Explain 根据计数生成说明文字。
func (s Suggestion) Explain(language string) string {
	return locale.Pick(language,
		fmt.Sprintf("This activity was marked as energy-boosting %d out of %d times.", s.BoosterCount, s.OccurrenceCount),
		fmt.Sprintf("该活动在 %d 次记录中有 %d 次被标记为提升能量。", s.OccurrenceCount, s.BoosterCount),
	)
}

type activityObservation struct {
	description string
	booster     bool
	mood        Mood
}

func flattenActivities(records []MoodRecord) []activityObservation {
	var out []activityObservation
	for _, record := range records {
		for _, activity := range record.Activities {
			out = append(out, activityObservation{
				description: activity.Description,
				booster:     activity.IsEnergyBooster,
				mood:        record.Mood,
			})
		}
	}
	return out
}

// GroupActivities 按大小写折叠后的描述分组，组的顺序与展示名称取首次出现者。
// 所属心情目前不参与计分。空白描述被忽略。
func GroupActivities(records []MoodRecord) []ActivityGroup {
	folder := cases.Fold()
	index := make(map[string]int)
	var groups []ActivityGroup

	for _, obs := range flattenActivities(records) {
		if strings.TrimSpace(obs.description) == "" {
			continue
		}
		key := folder.String(obs.description)
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, ActivityGroup{Key: key, Label: obs.description})
		}
		groups[pos].OccurrenceCount++
		if obs.booster {
			groups[pos].BoosterCount++
		}
	}
	return groups
}

// ScorerOptions 配置 Scorer。
type ScorerOptions struct {
	Concurrency int
	Timeout     time.Duration
	Logger      *logger.Logger
	// OnFallback 在某个活动组使用中性分时调用，可为空；会被多个 goroutine 同时调用。
	OnFallback func(label string, err error)
	// OnGroups 在分组完成后以活动组数量调用一次，可为空。
	OnGroups func(count int)
}

// Scorer 将活动组的能量比例与情感分数合成排序建议。
type Scorer struct {
	classifier  SentimentClassifier
	concurrency int
	timeout     time.Duration
	log         *logger.Logger
	onFallback  func(label string, err error)
	onGroups    func(count int)
}

// NewScorer 构造 Scorer，classifier 为空时所有组使用中性分。
func NewScorer(classifier SentimentClassifier, opts ScorerOptions) *Scorer {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultLookupConcurrency
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Scorer{
		classifier:  classifier,
		concurrency: concurrency,
		timeout:     timeout,
		log:         opts.Logger,
		onFallback:  opts.OnFallback,
		onGroups:    opts.OnGroups,
	}
}

type sentimentResult struct {
	sentiment Sentiment
	fallback  bool
}

// Suggest 分组、并发查询情感、等待全部完成后排序并截取前 MaxSuggestions 条。
// 情感查询失败只影响对应的组（按中性 0.5 计），不会使整体失败。
func (s *Scorer) Suggest(ctx context.Context, records []MoodRecord) []Suggestion {
	groups := GroupActivities(records)
	if s.onGroups != nil {
		s.onGroups(len(groups))
	}
	if len(groups) == 0 {
		return []Suggestion{}
	}

	results := make([]sentimentResult, len(groups))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, group := range groups {
		g.Go(func() error {
			results[i] = s.lookup(ctx, group.Label)
			return nil
		})
	}
	_ = g.Wait()

	suggestions := make([]Suggestion, 0, len(groups))
	for i, group := range groups {
		base := group.BaseScore()
		sentimentScore := results[i].sentiment.Score()
		suggestion := Suggestion{
			Activity:        group.Label,
			Score:           (base + sentimentScore) / 2,
			BaseScore:       base,
			SentimentScore:  sentimentScore,
			Sentiment:       results[i].sentiment,
			Fallback:        results[i].fallback,
			BoosterCount:    group.BoosterCount,
			OccurrenceCount: group.OccurrenceCount,
		}
		suggestion.Explanation = suggestion.Explain(locale.LanguageEnglish)
		suggestions = append(suggestions, suggestion)
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

func (s *Scorer) lookup(ctx context.Context, label string) sentimentResult {
	if s.classifier == nil {
		return s.fallback(label, errors.New("no sentiment classifier configured"))
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sentiment, err := s.classifier.Classify(lookupCtx, label)
	if err != nil {
		return s.fallback(label, err)
	}
	if !sentiment.Valid() {
		return s.fallback(label, fmt.Errorf("%w: %q", ErrUnknownSentiment, sentiment))
	}
	return sentimentResult{sentiment: sentiment}
}

func (s *Scorer) fallback(label string, err error) sentimentResult {
	s.log.Warn("sentiment lookup failed, using neutral score", "activity", label, "error", err)
	if s.onFallback != nil {
		s.onFallback(label, err)
	}
	return sentimentResult{sentiment: SentimentNeutral, fallback: true}
}
