package insight

import (
	"fmt"
	"time"
)

// SleepDuration 计算入睡到起床的时长，起床时间早于入睡时间时视为次日起床。
// 两个时间相同时时长为 0。
func SleepDuration(bedtime, wakeup string) (time.Duration, error) {
	start, end, err := ResolveTimeRange(time.Time{}, bedtime, wakeup)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// FormatSleepDuration 以 "8 hr 45 min" 的形式输出时长，不足一分钟的部分舍去。
func FormatSleepDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d hr %d min", hours, minutes)
}
