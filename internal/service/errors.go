package service

import "errors"

var (
	// ErrInvalidDate 日期不是 YYYY-MM-DD 格式
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidMood 心情不是五种可选心情之一
	ErrInvalidMood = errors.New("invalid mood")
	// ErrMoodEntryNotFound 指定日期没有心情记录
	ErrMoodEntryNotFound = errors.New("mood entry not found")
	// ErrActivityInvalid 活动时间或描述不合法
	ErrActivityInvalid = errors.New("invalid activity")
	// ErrActivityNotFound 活动不存在或不属于当前用户
	ErrActivityNotFound = errors.New("activity not found")
	// ErrMemeInvalid 上传的文件不是可识别的图片
	ErrMemeInvalid = errors.New("invalid meme image")
	// ErrMemeTooLarge 上传的文件超过大小限制
	ErrMemeTooLarge = errors.New("meme image too large")
	// ErrUserExists 用户名已被占用
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken 访问令牌无效或已过期
	ErrInvalidToken = errors.New("invalid token")
)
