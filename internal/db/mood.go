package db

import (
	"time"

	"gorm.io/gorm"
)

// DateLayout 是 MoodEntry.Date 的存储格式，按字典序比较即按日期比较。
const DateLayout = "2006-01-02"

// MoodEntry 每个用户每天一条心情记录
// UserID + Date 采用唯一索引，保证按天 upsert 的幂等性
// Mood 直接存储表情符号，无法识别的值在分析时视为未知
type MoodEntry struct {
	gorm.Model
	UserID      uint       `gorm:"not null;uniqueIndex:idx_mood_entry_user_date"`
	Date        string     `gorm:"size:10;not null;uniqueIndex:idx_mood_entry_user_date"`
	Mood        string     `gorm:"size:16;not null"`
	JournalText string     `gorm:"type:text"`
	Activities  []Activity `gorm:"constraint:OnDelete:CASCADE"`
	Memes       []Meme     `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName 保持表名稳定。
func (MoodEntry) TableName() string {
	return "mood_entries"
}

// Activity 记录某天中的一段活动，EndTime 早于 StartTime 时已在写入前顺延到次日。
type Activity struct {
	gorm.Model
	MoodEntryID     uint      `gorm:"index;not null"`
	StartTime       time.Time `gorm:"not null"`
	EndTime         time.Time `gorm:"not null"`
	Description     string    `gorm:"type:text;not null"`
	IsEnergyBooster bool      `gorm:"not null;default:false"`
}

// TableName 保持表名稳定。
func (Activity) TableName() string {
	return "activities"
}

// Meme 保存上传到对象存储的图片引用。
type Meme struct {
	gorm.Model
	MoodEntryID uint   `gorm:"index;not null"`
	ObjectKey   string `gorm:"size:255;not null"`
	URL         string `gorm:"size:1024;not null"`
	ContentType string `gorm:"size:100"`
	SizeBytes   int64
	Width       int
	Height      int
}

// TableName 保持表名稳定。
func (Meme) TableName() string {
	return "memes"
}
