// Package insight 将心情记录与活动记录加工为趋势、日历与活动建议。
// 包内只处理已转换好的类型化记录，不访问存储或网络。
package insight

import "strings"

// Mood 是心情的封闭枚举，取值为表情符号本身。
type Mood string

const (
	MoodGreat   Mood = "😊"
	MoodGood    Mood = "🙂"
	MoodOkay    Mood = "😐"
	MoodLow     Mood = "🙁"
	MoodSad     Mood = "😢"
	MoodUnknown Mood = "🤷"
)

var moodScores = map[Mood]int{
	MoodGreat:   5,
	MoodGood:    4,
	MoodOkay:    3,
	MoodLow:     2,
	MoodSad:     1,
	MoodUnknown: 0,
}

var moodNames = map[Mood]string{
	MoodGreat:   "great",
	MoodGood:    "good",
	MoodOkay:    "okay",
	MoodLow:     "low",
	MoodSad:     "sad",
	MoodUnknown: "unknown",
}

// SelectableMoods 返回用户可以选择的心情，按分数从高到低排列。
func SelectableMoods() []Mood {
	return []Mood{MoodGreat, MoodGood, MoodOkay, MoodLow, MoodSad}
}

// ParseMood 接受表情符号或英文名称，无法识别时返回 MoodUnknown。
func ParseMood(raw string) Mood {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MoodUnknown
	}
	// 部分输入法会在表情后追加 VS16
	candidate := Mood(strings.TrimSuffix(trimmed, "\ufe0f"))
	if _, ok := moodScores[candidate]; ok {
		return candidate
	}
	lowered := strings.ToLower(trimmed)
	for mood, name := range moodNames {
		if name == lowered {
			return mood
		}
	}
	return MoodUnknown
}

// Score 返回 0-5 的心情分数，未知心情为 0。
func (m Mood) Score() int {
	return moodScores[ParseMood(string(m))]
}

// Known 判断心情是否为五种可选心情之一。
func (m Mood) Known() bool {
	return ParseMood(string(m)) != MoodUnknown
}

// Name 返回心情的英文名称。
func (m Mood) Name() string {
	return moodNames[ParseMood(string(m))]
}

// Emoji 返回日历中展示的符号，未知心情返回空串以便界面显示日期数字。
func (m Mood) Emoji() string {
	parsed := ParseMood(string(m))
	if parsed == MoodUnknown {
		return ""
	}
	return string(parsed)
}
