package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) PublicURL(key string) string {
	return "/static/uploads/" + key
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMemeServiceUploadStoresImage(t *testing.T) {
	gdb := setupTestDB(t)
	user := createTestUser(t, gdb, "judy")
	entry := mustUpsertMood(t, NewMoodEntryService(gdb), user.ID, "2025-05-05", "great")
	store := newMemoryStore()
	svc := NewMemeService(gdb, store, 0, nil)

	meme, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{
		Filename:    "Cat.PNG",
		ContentType: "image/png",
		Body:        bytes.NewReader(testPNG(t, 4, 3)),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if meme.Width != 4 || meme.Height != 3 {
		t.Fatalf("unexpected dimensions %dx%d", meme.Width, meme.Height)
	}
	wantPrefix := uintString(entry.ID) + "/"
	if !strings.HasPrefix(meme.ObjectKey, wantPrefix) || !strings.HasSuffix(meme.ObjectKey, ".png") {
		t.Fatalf("unexpected key %q", meme.ObjectKey)
	}
	if meme.URL != "/static/uploads/"+meme.ObjectKey {
		t.Fatalf("unexpected url %q", meme.URL)
	}
	if _, ok := store.objects[meme.ObjectKey]; !ok {
		t.Fatalf("expected object stored under %q", meme.ObjectKey)
	}

	reloaded, err := NewMoodEntryService(gdb).GetByDate(context.Background(), user.ID, "2025-05-05")
	if err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if len(reloaded.Memes) != 1 {
		t.Fatalf("expected 1 meme on entry, got %d", len(reloaded.Memes))
	}
}

func TestMemeServiceValidation(t *testing.T) {
	gdb := setupTestDB(t)
	user := createTestUser(t, gdb, "ken")
	store := newMemoryStore()
	svc := NewMemeService(gdb, store, 256, nil)
	pngBytes := testPNG(t, 2, 2)

	if _, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{Filename: "a.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)}); !errors.Is(err, ErrMoodEntryNotFound) {
		t.Fatalf("expected ErrMoodEntryNotFound, got %v", err)
	}

	mustUpsertMood(t, NewMoodEntryService(gdb), user.ID, "2025-05-05", "good")

	if _, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("hi")}); !errors.Is(err, ErrMemeInvalid) {
		t.Fatalf("expected ErrMemeInvalid for text, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("not an image")}); !errors.Is(err, ErrMemeInvalid) {
		t.Fatalf("expected ErrMemeInvalid for garbage, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{Filename: "big.png", ContentType: "image/png", Body: bytes.NewReader(make([]byte, 257))}); !errors.Is(err, ErrMemeTooLarge) {
		t.Fatalf("expected ErrMemeTooLarge, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected nothing stored, got %d objects", len(store.objects))
	}
}

func TestMemeFormat(t *testing.T) {
	cases := map[string][2]string{
		"png":  {".png", "image/png"},
		"jpeg": {".jpg", "image/jpeg"},
		"gif":  {".gif", "image/gif"},
		"webp": {".webp", "image/webp"},
	}
	for format, want := range cases {
		ext, contentType, ok := memeFormat(format)
		if !ok || ext != want[0] || contentType != want[1] {
			t.Fatalf("memeFormat(%q) = %q, %q, %v", format, ext, contentType, ok)
		}
	}
	if _, _, ok := memeFormat("bmp"); ok {
		t.Fatal("expected bmp to be rejected")
	}
}

func TestMemeServiceUploadIgnoresClientFilenameAndType(t *testing.T) {
	gdb := setupTestDB(t)
	user := createTestUser(t, gdb, "mallory")
	mustUpsertMood(t, NewMoodEntryService(gdb), user.ID, "2025-05-05", "okay")
	store := newMemoryStore()
	svc := NewMemeService(gdb, store, 0, nil)

	body := append(testPNG(t, 2, 2), []byte("<script>alert(1)</script>")...)
	meme, err := svc.Upload(context.Background(), user.ID, "2025-05-05", MemeUpload{
		Filename:    "evil.html",
		ContentType: "image/svg+xml",
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(meme.ObjectKey, ".png") || strings.Contains(meme.ObjectKey, ".html") {
		t.Fatalf("expected key to use decoded format, got %q", meme.ObjectKey)
	}
	if meme.ContentType != "image/png" {
		t.Fatalf("expected sniffed content type, got %q", meme.ContentType)
	}
	if got := store.types[meme.ObjectKey]; got != "image/png" {
		t.Fatalf("expected object stored as image/png, got %q", got)
	}
}
