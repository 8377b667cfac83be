package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage はローカルファイルシステムにエクスポートを保存する Storage 実装。
type LocalStorage struct {
	baseDir string // ディスク上のルートディレクトリ (例: "./exports")
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage は LocalStorage を生成する。
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (s *LocalStorage) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key), nil
}

// Save は一時ファイルに書き込んでから rename するため、途中で失敗しても
// 既存ファイルが壊れることはない。返り値はディスク上のパス。
func (s *LocalStorage) Save(ctx context.Context, key string, data io.Reader, _ string) (string, error) {
	dest, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // rename 成功後は no-op

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("storage: rename: %w", err)
	}
	return dest, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
