package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/logger"
	"github.com/moodlog/internal/storage"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

// DefaultMemeMaxBytes 为单张图片的默认大小上限。
const DefaultMemeMaxBytes int64 = 5 << 20

// MemeUpload 描述一次图片上传。
type MemeUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MemeService 将图片写入对象存储并记录引用。
type MemeService struct {
	db       *gorm.DB
	store    storage.ObjectStore
	maxBytes int64
	log      *logger.Logger
}

// NewMemeService 构造 MemeService，maxBytes<=0 时使用 5MB。
func NewMemeService(gdb *gorm.DB, store storage.ObjectStore, maxBytes int64, log *logger.Logger) *MemeService {
	if maxBytes <= 0 {
		maxBytes = DefaultMemeMaxBytes
	}
	return &MemeService{db: gdb, store: store, maxBytes: maxBytes, log: log}
}

// Upload 校验图片并保存到 {entryID}/{uuid}{ext}，对应日期必须已有心情记录。
func (s *MemeService) Upload(ctx context.Context, userID uint, date string, upload MemeUpload) (*db.Meme, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrMemeInvalid, upload.ContentType)
	}
	if upload.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMemeInvalid)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrMemeTooLarge
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemeInvalid, err)
	}
	// 扩展名与 Content-Type 只取自解码结果，静态文件服务按扩展名输出类型
	ext, sniffedType, ok := memeFormat(format)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMemeInvalid, format)
	}

	var entry db.MoodEntry
	if err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, day).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMoodEntryNotFound
		}
		return nil, fmt.Errorf("load mood entry: %w", err)
	}

	key := fmt.Sprintf("%d/%s%s", entry.ID, uuid.New().String(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), sniffedType); err != nil {
		return nil, fmt.Errorf("store meme: %w", err)
	}

	meme := db.Meme{
		MoodEntryID: entry.ID,
		ObjectKey:   key,
		URL:         s.store.PublicURL(key),
		ContentType: sniffedType,
		SizeBytes:   int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	if err := s.db.WithContext(ctx).Create(&meme).Error; err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("cleanup stored meme failed", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("create meme: %w", err)
	}
	s.log.Info("meme uploaded", "user_id", userID, "date", day, "key", key, "bytes", len(data))
	return &meme, nil
}

// memeFormat 将 image.DecodeConfig 识别出的格式映射为扩展名与 MIME 类型。
func memeFormat(format string) (ext, contentType string, ok bool) {
	switch format {
	case "png":
		return ".png", "image/png", true
	case "jpeg":
		return ".jpg", "image/jpeg", true
	case "gif":
		return ".gif", "image/gif", true
	case "webp":
		return ".webp", "image/webp", true
	default:
		return "", "", false
	}
}
