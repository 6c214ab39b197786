package insight

import (
	"time"
)

// CalendarDay 是月历中的一格。
type CalendarDay struct {
	Date     time.Time
	Day      int
	Mood     Mood
	Emoji    string
	Score    int
	HasEntry bool
	InMonth  bool
}

// CalendarSummary 汇总当月的记录情况。
type CalendarSummary struct {
	LoggedDays   int
	AverageScore float64
	MoodCounts   map[Mood]int
}

// MonthCalendar 以周日为一周起点的月历，首尾用相邻月份的日期补齐。
type MonthCalendar struct {
	Month   time.Time
	Weeks   [][]CalendarDay
	Summary CalendarSummary
}

// BuildMonthCalendar 将记录铺到 month 所在月份的月历上。
// 同一天有多条记录时取先出现的一条；没有记录的日期显示为未知心情且不带表情。
func BuildMonthCalendar(records []MoodRecord, month time.Time) MonthCalendar {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)

	byDate := make(map[string]Mood, len(records))
	for _, record := range records {
		key := record.Date.Format("2006-01-02")
		if _, exists := byDate[key]; exists {
			continue
		}
		byDate[key] = ParseMood(string(record.Mood))
	}

	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	gridEnd := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	cal := MonthCalendar{
		Month:   first,
		Summary: CalendarSummary{MoodCounts: make(map[Mood]int)},
	}

	var (
		week      []CalendarDay
		scoreSum  int
		scoredCnt int
	)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		mood, hasEntry := byDate[day.Format("2006-01-02")]
		if !hasEntry {
			mood = MoodUnknown
		}
		inMonth := day.Month() == first.Month() && day.Year() == first.Year()

		week = append(week, CalendarDay{
			Date:     day,
			Day:      day.Day(),
			Mood:     mood,
			Emoji:    mood.Emoji(),
			Score:    mood.Score(),
			HasEntry: hasEntry,
			InMonth:  inMonth,
		})

		if inMonth && hasEntry {
			cal.Summary.LoggedDays++
			cal.Summary.MoodCounts[mood]++
			if mood.Known() {
				scoreSum += mood.Score()
				scoredCnt++
			}
		}

		if day.Weekday() == time.Saturday {
			cal.Weeks = append(cal.Weeks, week)
			week = nil
		}
	}

	if scoredCnt > 0 {
		cal.Summary.AverageScore = float64(scoreSum) / float64(scoredCnt)
	}
	return cal
}
