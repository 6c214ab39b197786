package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moodlog/internal/db"
)

func TestActivityServiceCreateRollsOverMidnight(t *testing.T) {
	gdb := setupTestDB(t)
	user := createTestUser(t, gdb, "frank")
	moods := NewMoodEntryService(gdb)
	svc := NewActivityService(gdb, time.UTC)

	mustUpsertMood(t, moods, user.ID, "2025-04-10", "good")

	activity, err := svc.Create(context.Background(), user.ID, "2025-04-10", ActivityInput{
		StartTime:       "22:30",
		EndTime:         "01:15",
		Description:     "  Night walk ",
		IsEnergyBooster: true,
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	if activity.Description != "Night walk" {
		t.Fatalf("expected trimmed description, got %q", activity.Description)
	}
	wantStart := time.Date(2025, 4, 10, 22, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 4, 11, 1, 15, 0, 0, time.UTC)
	if !activity.StartTime.Equal(wantStart) || !activity.EndTime.Equal(wantEnd) {
		t.Fatalf("unexpected range %v - %v", activity.StartTime, activity.EndTime)
	}

	entry, err := moods.GetByDate(context.Background(), user.ID, "2025-04-10")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if len(entry.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(entry.Activities))
	}
}

func TestActivityServiceValidation(t *testing.T) {
	gdb := setupTestDB(t)
	user := createTestUser(t, gdb, "grace")
	moods := NewMoodEntryService(gdb)
	svc := NewActivityService(gdb, time.UTC)

	if _, err := svc.Create(context.Background(), user.ID, "2025-04-10", ActivityInput{StartTime: "08:00", EndTime: "09:00", Description: "Yoga"}); !errors.Is(err, ErrMoodEntryNotFound) {
		t.Fatalf("expected ErrMoodEntryNotFound, got %v", err)
	}

	mustUpsertMood(t, moods, user.ID, "2025-04-10", "good")

	cases := []ActivityInput{
		{StartTime: "08:00", EndTime: "09:00", Description: " "},
		{StartTime: "8am", EndTime: "09:00", Description: "Yoga"},
		{StartTime: "08:00", EndTime: "25:00", Description: "Yoga"},
	}
	for _, input := range cases {
		if _, err := svc.Create(context.Background(), user.ID, "2025-04-10", input); !errors.Is(err, ErrActivityInvalid) {
			t.Fatalf("input %#v: expected ErrActivityInvalid, got %v", input, err)
		}
	}
}

func TestActivityServiceDeleteIsScopedToOwner(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createTestUser(t, gdb, "heidi")
	intruder := createTestUser(t, gdb, "ivan")
	moods := NewMoodEntryService(gdb)
	svc := NewActivityService(gdb, time.UTC)

	mustUpsertMood(t, moods, owner.ID, "2025-04-10", "good")
	activity, err := svc.Create(context.Background(), owner.ID, "2025-04-10", ActivityInput{StartTime: "07:00", EndTime: "07:30", Description: "Stretch"})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}

	if err := svc.Delete(context.Background(), intruder.ID, activity.ID); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound for other user, got %v", err)
	}
	if err := svc.Delete(context.Background(), owner.ID, activity.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	gdb.Model(&db.Activity{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected activity removed, %d left", count)
	}
}
