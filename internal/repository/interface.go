package repository

import (
	"context"

	"github.com/augmentum/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// AdminRepository はダッシュボード管理者の永続化インターフェース
type AdminRepository interface {
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) error
}
