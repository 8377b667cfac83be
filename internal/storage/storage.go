package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage はエクスポートファイル (CSV) の保存・削除を抽象化するインターフェース。
// ローカルファイルシステム実装の他、オブジェクトストレージに差し替え可能。
type Storage interface {
	// Save はファイルを保存し、保存先の location を返す。
	// key はストレージ内の一意パス (例: "augmentum-messages-2026-10-18.csv")。
	Save(ctx context.Context, key string, data io.Reader, contentType string) (location string, err error)

	// Delete は key に対応するファイルを削除する。存在しない場合は何もしない。
	Delete(ctx context.Context, key string) error
}
