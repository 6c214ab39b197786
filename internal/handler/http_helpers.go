package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/sentiment"
	"github.com/moodlog/internal/service"
)

const userIDContextKey = "user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// currentUserID 返回认证中间件写入的用户 ID。
func currentUserID(c *gin.Context) uint {
	return c.GetUint(userIDContextKey)
}

// handleServiceError 将业务错误映射为状态码，未知错误记录日志并返回 500。
func (a *API) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidMood):
		respondError(c, http.StatusBadRequest, "请选择有效的心情")
	case errors.Is(err, service.ErrActivityInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMemeInvalid):
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
	case errors.Is(err, service.ErrMemeTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "图片大小不能超过限制")
	case errors.Is(err, service.ErrMoodEntryNotFound):
		respondError(c, http.StatusNotFound, "当天还没有心情记录")
	case errors.Is(err, service.ErrActivityNotFound):
		respondError(c, http.StatusNotFound, "活动不存在")
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "用户名已存在")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
	case errors.Is(err, sentiment.ErrAPIKeyMissing):
		respondError(c, http.StatusBadRequest, "请填写有效的 API Key")
	default:
		a.log.Error(fallback, "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
