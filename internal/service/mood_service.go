package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MoodEntryService 负责心情记录的读写，每个用户每天至多一条记录。
type MoodEntryService struct {
	db *gorm.DB
}

// NewMoodEntryService 构造 MoodEntryService
func NewMoodEntryService(gdb *gorm.DB) *MoodEntryService {
	return &MoodEntryService{db: gdb}
}

// ParseDate 解析 YYYY-MM-DD，返回 loc 中当天零点。
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(db.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return parsed, nil
}

func normalizeDate(raw string) (string, error) {
	parsed, err := ParseDate(raw, time.UTC)
	if err != nil {
		return "", err
	}
	return parsed.Format(db.DateLayout), nil
}

// UpsertMood 设置某天的心情，已存在时只更新心情。
func (s *MoodEntryService) UpsertMood(ctx context.Context, userID uint, date, mood string) (*db.MoodEntry, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	parsed := insight.ParseMood(mood)
	if !parsed.Known() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMood, mood)
	}

	entry := db.MoodEntry{UserID: userID, Date: day, Mood: string(parsed)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"mood":       entry.Mood,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("upsert mood entry: %w", err)
	}
	return s.GetByDate(ctx, userID, day)
}

// UpdateJournal 更新某天的日记正文，记录不存在时返回 ErrMoodEntryNotFound。
func (s *MoodEntryService) UpdateJournal(ctx context.Context, userID uint, date, text string) (*db.MoodEntry, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).Model(&db.MoodEntry{}).
		Where("user_id = ? AND date = ?", userID, day).
		Update("journal_text", text)
	if result.Error != nil {
		return nil, fmt.Errorf("update journal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrMoodEntryNotFound
	}
	return s.GetByDate(ctx, userID, day)
}

// GetByDate 返回某天的记录，活动按开始时间排序。
func (s *MoodEntryService) GetByDate(ctx context.Context, userID uint, date string) (*db.MoodEntry, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	var entry db.MoodEntry
	err = s.withChildren(s.db.WithContext(ctx)).
		Where("user_id = ? AND date = ?", userID, day).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMoodEntryNotFound
		}
		return nil, fmt.Errorf("load mood entry: %w", err)
	}
	return &entry, nil
}

// List 返回 [start, end] 区间内的记录，新的在前；start 或 end 为空表示不限。
func (s *MoodEntryService) List(ctx context.Context, userID uint, start, end string) ([]db.MoodEntry, error) {
	query := s.withChildren(s.db.WithContext(ctx)).Where("user_id = ?", userID)
	if strings.TrimSpace(start) != "" {
		day, err := normalizeDate(start)
		if err != nil {
			return nil, err
		}
		query = query.Where("date >= ?", day)
	}
	if strings.TrimSpace(end) != "" {
		day, err := normalizeDate(end)
		if err != nil {
			return nil, err
		}
		query = query.Where("date <= ?", day)
	}

	var entries []db.MoodEntry
	if err := query.Order("date desc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, nil
}

// ListSince 返回 since 当天及之后的记录，按日期升序。
func (s *MoodEntryService) ListSince(ctx context.Context, userID uint, since time.Time) ([]db.MoodEntry, error) {
	var entries []db.MoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since.Format(db.DateLayout)).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list mood entries since %s: %w", since.Format(db.DateLayout), err)
	}
	return entries, nil
}

// ListWithActivities 返回用户全部记录及其活动，按日期升序。
func (s *MoodEntryService) ListWithActivities(ctx context.Context, userID uint) ([]db.MoodEntry, error) {
	var entries []db.MoodEntry
	err := s.db.WithContext(ctx).
		Preload("Activities", func(tx *gorm.DB) *gorm.DB { return tx.Order("start_time asc").Order("id asc") }).
		Where("user_id = ?", userID).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list mood entries with activities: %w", err)
	}
	return entries, nil
}

func (s *MoodEntryService) withChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Activities", func(tx *gorm.DB) *gorm.DB { return tx.Order("start_time asc").Order("id asc") }).
		Preload("Memes", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") })
}

// ToRecords 将存储行转换为分析使用的类型化记录。
// 日期按 loc 解析，无法解析的行被跳过，空白描述的活动被丢弃，未知心情保留为 MoodUnknown。
func ToRecords(entries []db.MoodEntry, loc *time.Location) []insight.MoodRecord {
	records := make([]insight.MoodRecord, 0, len(entries))
	for _, entry := range entries {
		date, err := ParseDate(entry.Date, loc)
		if err != nil {
			continue
		}
		record := insight.MoodRecord{
			ID:          entry.ID,
			Date:        date,
			Mood:        insight.ParseMood(entry.Mood),
			JournalText: entry.JournalText,
		}
		for _, activity := range entry.Activities {
			if strings.TrimSpace(activity.Description) == "" {
				continue
			}
			record.Activities = append(record.Activities, insight.Activity{
				ID:              activity.ID,
				MoodRecordID:    activity.MoodEntryID,
				StartTime:       activity.StartTime,
				EndTime:         activity.EndTime,
				Description:     activity.Description,
				IsEnergyBooster: activity.IsEnergyBooster,
			})
		}
		records = append(records, record)
	}
	return records
}
