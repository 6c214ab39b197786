package insight

import (
	"cmp"
	"slices"
	"time"
)

const (
	// TrendWindowDays 为趋势图回看的天数（含窗口起点当天）。
	TrendWindowDays = 30
	// DisplayDateLayout 为趋势点的展示日期格式，例如 "Mar 5"。
	DisplayDateLayout = "Jan 2"
)

// TrendPoint 是趋势序列中的一个点。
type TrendPoint struct {
	Date        time.Time
	DisplayDate string
	Score       int
	Mood        Mood
}

// Trend 为窗口内按日期升序的分数序列及其最高/最低点。
// 序列为空时 Best 与 Worst 均为 nil。
type Trend struct {
	WindowStart time.Time
	Points      []TrendPoint
	Best        *TrendPoint
	Worst       *TrendPoint
}

// TrendWindowStart 返回 now 所在日零点往前 TrendWindowDays 天的时间。
func TrendWindowStart(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -TrendWindowDays)
}

// BuildTrend 过滤出窗口内的记录并映射为分数序列。
// 同一天的多条记录全部保留，排序稳定，保持调用方传入的相对顺序。
func BuildTrend(records []MoodRecord, now time.Time) Trend {
	start := TrendWindowStart(now)

	windowed := make([]MoodRecord, 0, len(records))
	for _, record := range records {
		if StartOfDay(record.Date).Before(start) {
			continue
		}
		windowed = append(windowed, record)
	}

	slices.SortStableFunc(windowed, func(a, b MoodRecord) int {
		return cmp.Compare(StartOfDay(a.Date).Unix(), StartOfDay(b.Date).Unix())
	})

	trend := Trend{WindowStart: start, Points: make([]TrendPoint, 0, len(windowed))}
	for _, record := range windowed {
		mood := ParseMood(string(record.Mood))
		trend.Points = append(trend.Points, TrendPoint{
			Date:        StartOfDay(record.Date),
			DisplayDate: record.Date.Format(DisplayDateLayout),
			Score:       mood.Score(),
			Mood:        mood,
		})
	}

	trend.Best, trend.Worst = extremes(trend.Points)
	return trend
}

// extremes 按升序扫描，分数相同时取最早出现的点。
func extremes(points []TrendPoint) (best, worst *TrendPoint) {
	if len(points) == 0 {
		return nil, nil
	}
	bestIdx, worstIdx := 0, 0
	for i := 1; i < len(points); i++ {
		if points[i].Score > points[bestIdx].Score {
			bestIdx = i
		}
		if points[i].Score < points[worstIdx].Score {
			worstIdx = i
		}
	}
	bestPoint := points[bestIdx]
	worstPoint := points[worstIdx]
	return &bestPoint, &worstPoint
}
