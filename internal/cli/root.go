// Package cli 定义 moodlog 命令行入口。
package cli

import (
	"fmt"
	"strings"

	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// app 保存命令之间共享的配置与日志器。
type app struct {
	cfgFile string
	cfg     config.AppConfig
	log     *logger.Logger
}

// Execute 运行根命令。
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand 构造根命令，未指定子命令时启动 HTTP 服务。
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "moodlog",
		Short: "Mood and energy journal service",
		Long: `moodlog records daily moods, activities and journals, and turns them
into trends and activity suggestions.

Example usage:
  moodlog serve                          # Start the HTTP API
  moodlog init-user --username me        # Create an account
  moodlog seed --user me --days 30       # Generate sample entries
  moodlog insights --user me             # Print trend and suggestions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./moodlog.yaml)")

	root.AddCommand(
		newServeCommand(a),
		newInitUserCommand(a),
		newSeedCommand(a),
		newInsightsCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	a.log.Debug("configuration loaded",
		"database_driver", cfg.DatabaseDriver,
		"meme_storage", cfg.MemeStorage,
		"sentiment_provider", cfg.Sentiment.Provider,
	)
	return nil
}

func (a *app) openDB() (*gorm.DB, error) {
	level := gormlogger.Warn
	if strings.EqualFold(a.cfg.LogMode, "development") {
		level = gormlogger.Info
	}
	if err := db.Init(db.Options{
		Driver: a.cfg.DatabaseDriver,
		Path:   a.cfg.DatabasePath,
		DSN:    a.cfg.DatabaseDSN,
		Logger: gormlogger.Default.LogMode(level),
	}); err != nil {
		return nil, err
	}
	return db.DB, nil
}

func findUser(gdb *gorm.DB, username string) (*db.User, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return nil, fmt.Errorf("--user is required")
	}
	var user db.User
	if err := gdb.Where("username = ?", name).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %q: %w", name, err)
	}
	return &user, nil
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

