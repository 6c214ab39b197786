package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/locale"
	"github.com/moodlog/internal/service"
	"github.com/spf13/cobra"
)

func newInsightsCommand(a *app) *cobra.Command {
	var username, lang string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print the 30-day mood trend and activity suggestions",
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

			moods := service.NewMoodEntryService(gdb)
			system := service.NewSystemSettingService(gdb, a.cfg.Sentiment, a.log.With("component", "sentiment"))
			insights := service.NewInsightService(moods, system, a.log.With("component", "insight"))

			ctx := cmd.Context()
			trend, err := insights.Trend(ctx, user.ID)
			if err != nil {
				return err
			}
			suggestions, err := insights.Suggestions(ctx, user.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printTrend(out, trend); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return printSuggestions(out, suggestions, locale.NormalizeLanguage(lang))
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "account to analyse")
	cmd.Flags().StringVar(&lang, "lang", locale.LanguageEnglish, "explanation language (en or zh)")
	return cmd
}

func printTrend(w io.Writer, trend insight.Trend) error {
	printHeading(w, "Mood trend since %s", trend.WindowStart.Format(insight.DisplayDateLayout))
	if len(trend.Points) == 0 {
		printMuted(w, "no entries in the last %d days", insight.TrendWindowDays)
		return nil
	}

	rows := make([][]string, 0, len(trend.Points))
	for _, point := range trend.Points {
		rows = append(rows, []string{point.DisplayDate, point.Mood.Emoji(), strconv.Itoa(point.Score)})
	}
	if err := renderTable(w, []string{"date", "mood", "score"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "best: %s (%d)  worst: %s (%d)\n",
		trend.Best.DisplayDate, trend.Best.Score, trend.Worst.DisplayDate, trend.Worst.Score)
	return nil
}

func printSuggestions(w io.Writer, suggestions []insight.Suggestion, language string) error {
	printHeading(w, "Suggested activities")
	if len(suggestions) == 0 {
		printMuted(w, "no activities recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(suggestions))
	for i, s := range suggestions {
		sentiment := string(s.Sentiment)
		if s.Fallback {
			sentiment += " (fallback)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Activity,
			strconv.FormatFloat(s.Score, 'f', 2, 64),
			sentiment,
			s.Explain(language),
		})
	}
	return renderTable(w, []string{"rank", "activity", "score", "sentiment", "why"}, rows)
}
