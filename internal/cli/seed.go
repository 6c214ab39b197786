package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type sampleActivity struct {
	start, end  string
	description string
	booster     bool
}

var sampleMoods = []insight.Mood{
	insight.MoodGood, insight.MoodGreat, insight.MoodOkay, insight.MoodGood,
	insight.MoodLow, insight.MoodGreat, insight.MoodOkay, insight.MoodSad,
}

var sampleActivities = []sampleActivity{
	{"07:00", "07:40", "Morning run", true},
	{"12:30", "13:00", "Lunch walk", true},
	{"21:00", "22:30", "Scrolling social media", false},
	{"18:00", "19:00", "Yoga", true},
	{"09:00", "11:00", "Deep work", true},
	{"23:30", "00:30", "Late night gaming", false},
	{"16:00", "16:20", "Coffee break", false},
}

const sampleJournal = "Today felt **%s**.\n\n- slept okay\n- remembered to drink water"

func newSeedCommand(a *app) *cobra.Command {
	var username string
	var days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate sample mood entries and activities",
		Long: `Generate deterministic sample data for an existing account.
Days that already have activities are left untouched, so the command can be re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := a.openDB()
			if err != nil {
				return fmt.Errorf("数据库初始化失败: %w", err)
			}
			defer closeDB(gdb)

			user, err := findUser(gdb, username)
			if err != nil {
				return err
			}

			seeded, err := seedEntries(cmd.Context(), gdb, user.ID, days, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已为 %s 生成 %d 天的示例数据\n", user.Username, seeded)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "account to seed")
	cmd.Flags().IntVar(&days, "days", 30, "number of days ending today")
	return cmd
}

// seedEntries 生成以 now 为最后一天的 days 天记录，返回实际写入的天数。
func seedEntries(ctx context.Context, gdb *gorm.DB, userID uint, days int, now time.Time) (int, error) {
	moods := service.NewMoodEntryService(gdb)
	activities := service.NewActivityService(gdb, now.Location())

	seeded := 0
	for offset := days - 1; offset >= 0; offset-- {
		date := now.AddDate(0, 0, -offset).Format(db.DateLayout)
		mood := sampleMoods[offset%len(sampleMoods)]

		entry, err := moods.UpsertMood(ctx, userID, date, string(mood))
		if err != nil {
			return seeded, fmt.Errorf("seed mood %s: %w", date, err)
		}
		if len(entry.Activities) > 0 {
			continue
		}
		if _, err := moods.UpdateJournal(ctx, userID, date, fmt.Sprintf(sampleJournal, mood.Name())); err != nil {
			return seeded, fmt.Errorf("seed journal %s: %w", date, err)
		}

		// 每天两条活动，按偏移量轮换
		for i := 0; i < 2; i++ {
			sample := sampleActivities[(offset+i*3)%len(sampleActivities)]
			_, err := activities.Create(ctx, userID, date, service.ActivityInput{
				StartTime:       sample.start,
				EndTime:         sample.end,
				Description:     sample.description,
				IsEnergyBooster: sample.booster,
			})
			if err != nil {
				return seeded, fmt.Errorf("seed activity %s: %w", date, err)
			}
		}
		seeded++
	}
	return seeded, nil
}
