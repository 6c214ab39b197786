package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/handler"
	"github.com/moodlog/internal/logger"
	"github.com/moodlog/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options 描述构造路由所需的参数。
type Options struct {
	SessionSecret string
	CORSOrigins   []string
	// UploadDir 非空时以 UploadURLPath 提供本地上传文件
	UploadDir     string
	UploadURLPath string
	Logger        *logger.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(opts.Logger))
	r.Use(metrics.Middleware())

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("moodlog_session", store))
	r.Use(handler.LocaleMiddleware())

	if dir := strings.TrimSpace(opts.UploadDir); dir != "" {
		urlPath := "/" + strings.Trim(strings.TrimSpace(opts.UploadURLPath), "/")
		if urlPath == "/" {
			urlPath = "/static/uploads"
		}
		r.Static(urlPath, dir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
		auth.POST("/token", api.IssueToken)
		auth.GET("/me", api.AuthRequired(), api.Me)
	}

	// 需要认证的路由
	protected := r.Group("/api")
	protected.Use(api.AuthRequired())
	{
		protected.GET("/moods", api.ListMoods)
		protected.GET("/moods/:date", api.GetMood)
		protected.PUT("/moods/:date", api.PutMood)
		protected.PUT("/moods/:date/journal", api.PutJournal)
		protected.POST("/moods/:date/activities", api.CreateActivity)
		protected.POST("/moods/:date/memes", api.UploadMeme)
		protected.DELETE("/activities/:id", api.DeleteActivity)

		protected.GET("/insights/trend", api.Trend)
		protected.GET("/insights/suggestions", api.Suggestions)
		protected.GET("/insights/calendar", api.Calendar)
		protected.GET("/insights/sleep", api.Sleep)

	}

	// 情感分析设置作用于所有用户，仅管理员可见
	admin := protected.Group("/settings")
	admin.Use(api.AdminRequired())
	{
		admin.GET("", api.GetSettings)
		admin.PUT("", api.UpdateSettings)
		admin.POST("/test-sentiment", api.TestSentiment)
	}

	return r
}

// requestLogger 按状态码分级记录每个请求。
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if userID, ok := c.Get("user_id"); ok {
			fields = append(fields, "user_id", userID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
