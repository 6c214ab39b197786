package handler

import (
	"time"

	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/logger"
	"github.com/moodlog/internal/service"
	"github.com/moodlog/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	moods      *service.MoodEntryService
	activities *service.ActivityService
	memes      *service.MemeService
	users      *service.UserService
	tokens     *service.TokenService
	system     *service.SystemSettingService
	insights   *service.InsightService
	loc        *time.Location
	log        *logger.Logger
}

// Options 描述构造 API 所需的依赖。
type Options struct {
	DB       *gorm.DB
	Store    storage.ObjectStore
	Config   config.AppConfig
	Logger   *logger.Logger
	Location *time.Location
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	log := opts.Logger.With("component", "api")

	moods := service.NewMoodEntryService(opts.DB)
	system := service.NewSystemSettingService(opts.DB, opts.Config.Sentiment, opts.Logger.With("component", "sentiment"))

	return &API{
		db:         opts.DB,
		moods:      moods,
		activities: service.NewActivityService(opts.DB, loc),
		memes:      service.NewMemeService(opts.DB, opts.Store, opts.Config.MemeMaxBytes, log),
		users:      service.NewUserService(opts.DB),
		tokens:     service.NewTokenService(opts.Config.JWTSecret, opts.Config.JWTTTL),
		system:     system,
		insights:   service.NewInsightService(moods, system, opts.Logger.With("component", "insight")),
		loc:        loc,
		log:        log,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
