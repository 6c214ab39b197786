// Package storage 保存上传的表情包图片，支持本地目录与 Google Cloud Storage。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moodlog/internal/logger"
)

// ErrInvalidKey 表示对象 key 为空或试图跳出存储根目录。
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStore 是图片存储的最小接口。
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// LocalStore 将对象写入本地目录，并通过静态路由对外提供。
type LocalStore struct {
	dir     string
	urlPath string
	log     *logger.Logger
}

// NewLocalStore 创建本地存储，dir 不存在时自动创建。
func NewLocalStore(dir, urlPath string, log *logger.Logger) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	urlPath = "/" + strings.Trim(strings.TrimSpace(urlPath), "/")
	return &LocalStore{dir: dir, urlPath: urlPath, log: log.With("store", "local")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	s.log.Debug("object stored", "key", key, "content_type", contentType)
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	return path.Join(s.urlPath, key)
}

func (s *LocalStore) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
