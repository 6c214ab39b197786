package insight

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const clockLayout = "15:04"

// ErrInvalidClock 表示 HH:MM 时间格式不合法。
var ErrInvalidClock = errors.New("invalid clock time")

// Activity 是某条心情记录下的一段活动。
type Activity struct {
	ID              uint
	MoodRecordID    uint
	StartTime       time.Time
	EndTime         time.Time
	Description     string
	IsEnergyBooster bool
}

// MoodRecord 是某一天的心情记录，同一用户同一天至多一条由存储层保证。
type MoodRecord struct {
	ID          uint
	Date        time.Time
	Mood        Mood
	JournalText string
	Activities  []Activity
}

// StartOfDay 截断到所在时区的零点。
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseClock 解析 HH:MM，返回当天零点起的偏移。
func ParseClock(raw string) (time.Duration, error) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// ResolveTimeRange 将某天的开始/结束 HH:MM 组合为具体时间，结束早于开始时顺延到次日。
func ResolveTimeRange(day time.Time, start, end string) (time.Time, time.Time, error) {
	startOffset, err := ParseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endOffset, err := ParseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	base := StartOfDay(day)
	startAt := base.Add(startOffset)
	endAt := base.Add(endOffset)
	if endAt.Before(startAt) {
		endAt = endAt.AddDate(0, 0, 1)
	}
	return startAt, endAt, nil
}
