package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userPayload(id uint, username string) gin.H {
	return gin.H{"id": id, "username": username}
}

func userDetailPayload(user *db.User) gin.H {
	payload := userPayload(user.ID, user.Username)
	payload["is_admin"] = user.IsAdmin
	return payload
}

// Register 创建账号并直接登录
func (a *API) Register(c *gin.Context) {
	var payload credentialsRequest
	if !bindJSON(c, &payload, "请填写用户名和密码") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusBadRequest, "用户名不能为空且密码至少 6 位")
			return
		}
		a.handleServiceError(c, err, "注册失败")
		return
	}

	if !a.saveSession(c, user.ID, user.Username) {
		return
	}
	a.log.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"user": userPayload(user.ID, user.Username)})
}

// Login 校验密码并写入会话
func (a *API) Login(c *gin.Context) {
	var payload credentialsRequest
	if !bindJSON(c, &payload, "请填写用户名和密码") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		a.handleServiceError(c, err, "登录失败")
		return
	}

	if !a.saveSession(c, user.ID, user.Username) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user.ID, user.Username)})
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// IssueToken 校验密码后签发 Bearer 令牌，供不使用 Cookie 的客户端调用。
func (a *API) IssueToken(c *gin.Context) {
	var payload credentialsRequest
	if !bindJSON(c, &payload, "请填写用户名和密码") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		a.handleServiceError(c, err, "登录失败")
		return
	}

	token, expires, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		a.handleServiceError(c, err, "签发令牌失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires,
		"user":       userPayload(user.ID, user.Username),
	})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取用户信息失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userDetailPayload(user)})
}

func (a *API) saveSession(c *gin.Context, userID uint, username string) bool {
	session := sessions.Default(c)
	session.Set("user_id", userID)
	session.Set("username", username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return false
	}
	return true
}

// AuthRequired 接受会话 Cookie 或 Bearer 令牌，并把用户 ID 写入上下文。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				respondError(c, http.StatusUnauthorized, "无效的认证信息")
				c.Abort()
				return
			}
			userID, _, err := a.tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				respondError(c, http.StatusUnauthorized, "令牌无效或已过期")
				c.Abort()
				return
			}
			c.Set(userIDContextKey, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get("user_id").(uint)
		if !ok || userID == 0 {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// AdminRequired 只允许管理员访问，需放在 AuthRequired 之后。
func (a *API) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.users.Get(c.Request.Context(), currentUserID(c))
		if err != nil {
			a.handleServiceError(c, err, "获取用户信息失败")
			c.Abort()
			return
		}
		if !user.IsAdmin {
			respondError(c, http.StatusForbidden, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}
