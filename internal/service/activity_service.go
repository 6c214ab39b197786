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
)

// ActivityInput 定义新增活动时的字段，时间为 HH:MM。
type ActivityInput struct {
	StartTime       string
	EndTime         string
	Description     string
	IsEnergyBooster bool
}

// ActivityService 负责活动记录，活动总是挂在某天的心情记录下。
type ActivityService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewActivityService 构造 ActivityService，loc 为空时使用本地时区。
func NewActivityService(gdb *gorm.DB, loc *time.Location) *ActivityService {
	if loc == nil {
		loc = time.Local
	}
	return &ActivityService{db: gdb, loc: loc}
}

// Create 在指定日期的记录下新增活动，结束时间早于开始时间时顺延到次日。
func (s *ActivityService) Create(ctx context.Context, userID uint, date string, input ActivityInput) (*db.Activity, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrActivityInvalid)
	}
	start, end, err := insight.ResolveTimeRange(day, input.StartTime, input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrActivityInvalid, err)
	}

	var entry db.MoodEntry
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day.Format(db.DateLayout)).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMoodEntryNotFound
		}
		return nil, fmt.Errorf("load mood entry: %w", err)
	}

	activity := db.Activity{
		MoodEntryID:     entry.ID,
		StartTime:       start,
		EndTime:         end,
		Description:     description,
		IsEnergyBooster: input.IsEnergyBooster,
	}
	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return &activity, nil
}

// Delete 删除当前用户的一条活动。
func (s *ActivityService) Delete(ctx context.Context, userID, id uint) error {
	var activity db.Activity
	err := s.db.WithContext(ctx).
		Joins("JOIN mood_entries ON mood_entries.id = activities.mood_entry_id").
		Where("activities.id = ? AND mood_entries.user_id = ?", id, userID).
		First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("load activity: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&activity).Error; err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
