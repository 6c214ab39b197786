package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/service"
)

type moodRequest struct {
	Mood string `json:"mood" binding:"required"`
}

type journalRequest struct {
	JournalText string `json:"journal_text"`
}

type activityRequest struct {
	StartTime       string `json:"start_time" binding:"required"`
	EndTime         string `json:"end_time" binding:"required"`
	Description     string `json:"description" binding:"required"`
	IsEnergyBooster bool   `json:"is_energy_booster"`
}

func activityPayload(activity db.Activity) gin.H {
	return gin.H{
		"id":                activity.ID,
		"start_time":        activity.StartTime,
		"end_time":          activity.EndTime,
		"description":       activity.Description,
		"is_energy_booster": activity.IsEnergyBooster,
	}
}

func memePayload(meme db.Meme) gin.H {
	return gin.H{
		"id":           meme.ID,
		"url":          meme.URL,
		"content_type": meme.ContentType,
		"size_bytes":   meme.SizeBytes,
		"width":        meme.Width,
		"height":       meme.Height,
		"created_at":   meme.CreatedAt,
	}
}

func moodEntryPayload(entry db.MoodEntry, journalHTML string) gin.H {
	mood := insight.ParseMood(entry.Mood)
	activities := make([]gin.H, 0, len(entry.Activities))
	for _, activity := range entry.Activities {
		activities = append(activities, activityPayload(activity))
	}
	memes := make([]gin.H, 0, len(entry.Memes))
	for _, meme := range entry.Memes {
		memes = append(memes, memePayload(meme))
	}
	payload := gin.H{
		"id":           entry.ID,
		"date":         entry.Date,
		"mood":         string(mood),
		"mood_name":    mood.Name(),
		"mood_score":   mood.Score(),
		"journal_text": entry.JournalText,
		"activities":   activities,
		"memes":        memes,
		"updated_at":   entry.UpdatedAt,
	}
	if journalHTML != "" {
		payload["journal_html"] = journalHTML
	}
	return payload
}

// ListMoods 返回日期区间内的记录，新的在前
func (a *API) ListMoods(c *gin.Context) {
	entries, err := a.moods.List(c.Request.Context(), currentUserID(c), c.Query("start"), c.Query("end"))
	if err != nil {
		a.handleServiceError(c, err, "获取心情记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, moodEntryPayload(entry, ""))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// GetMood 返回某天的记录及渲染后的日记
func (a *API) GetMood(c *gin.Context) {
	entry, err := a.moods.GetByDate(c.Request.Context(), currentUserID(c), c.Param("date"))
	if err != nil {
		a.handleServiceError(c, err, "获取心情记录失败")
		return
	}
	a.respondEntry(c, http.StatusOK, entry)
}

// PutMood 设置某天的心情
func (a *API) PutMood(c *gin.Context) {
	var payload moodRequest
	if !bindJSON(c, &payload, "请选择心情") {
		return
	}

	entry, err := a.moods.UpsertMood(c.Request.Context(), currentUserID(c), c.Param("date"), payload.Mood)
	if err != nil {
		a.handleServiceError(c, err, "保存心情失败")
		return
	}
	a.respondEntry(c, http.StatusOK, entry)
}

// PutJournal 更新某天的日记
func (a *API) PutJournal(c *gin.Context) {
	var payload journalRequest
	if !bindJSON(c, &payload, "日记内容格式不正确") {
		return
	}

	entry, err := a.moods.UpdateJournal(c.Request.Context(), currentUserID(c), c.Param("date"), payload.JournalText)
	if err != nil {
		a.handleServiceError(c, err, "保存日记失败")
		return
	}
	a.respondEntry(c, http.StatusOK, entry)
}

func (a *API) respondEntry(c *gin.Context, status int, entry *db.MoodEntry) {
	html, err := service.RenderJournal(entry.JournalText)
	if err != nil {
		a.log.Warn("render journal failed", "entry_id", entry.ID, "error", err)
	}
	c.JSON(status, gin.H{"entry": moodEntryPayload(*entry, html)})
}

// CreateActivity 在某天的记录下新增活动
func (a *API) CreateActivity(c *gin.Context) {
	var payload activityRequest
	if !bindJSON(c, &payload, "请填写活动的开始时间、结束时间和描述") {
		return
	}

	activity, err := a.activities.Create(c.Request.Context(), currentUserID(c), c.Param("date"), service.ActivityInput{
		StartTime:       payload.StartTime,
		EndTime:         payload.EndTime,
		Description:     payload.Description,
		IsEnergyBooster: payload.IsEnergyBooster,
	})
	if err != nil {
		a.handleServiceError(c, err, "保存活动失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activityPayload(*activity)})
}

// DeleteActivity 删除活动
func (a *API) DeleteActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的活动 ID")
		return
	}

	if err := a.activities.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		a.handleServiceError(c, err, "删除活动失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadMeme 处理表情包图片上传
func (a *API) UploadMeme(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取上传文件失败")
		return
	}
	defer src.Close()

	meme, err := a.memes.Upload(c.Request.Context(), currentUserID(c), c.Param("date"), service.MemeUpload{
		Filename:    file.Filename,
		ContentType: contentType,
		Body:        src,
	})
	if err != nil {
		a.handleServiceError(c, err, "保存图片失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meme": memePayload(*meme)})
}
