package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述打开数据库所需的参数。
type Options struct {
	// Driver 取值 sqlite 或 postgres，为空时使用 sqlite。
	Driver string
	// Path 为 sqlite 文件路径，为空时回退到 moodlog.db。
	Path string
	// DSN 为 postgres 连接串。
	DSN string
	// Logger 为空时使用 gorm 默认日志（仅输出警告）。
	Logger logger.Interface
}

// Init 初始化数据库连接并执行自动迁移。
func Init(opts Options) error {
	dialector, err := openDialector(opts)
	if err != nil {
		return err
	}

	cfg := &gorm.Config{}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	} else {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Migrate 为核心模型创建或更新表结构。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&User{},
		&MoodEntry{},
		&Activity{},
		&Meme{},
		&SystemSetting{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func openDialector(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "postgres":
		dsn := strings.TrimSpace(opts.DSN)
		if dsn == "" {
			return nil, errors.New("postgres dsn is required")
		}
		return postgres.Open(dsn), nil
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "moodlog.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
