package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/augmentum/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgAdminRepository は AdminRepository の PostgreSQL 実装
type PgAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPgAdminRepository は PgAdminRepository を生成する
func NewPgAdminRepository(pool *pgxpool.Pool) *PgAdminRepository {
	return &PgAdminRepository{pool: pool}
}

var (
	_ AdminRepository = (*PgAdminRepository)(nil)
	_ DB              = (*PgAdminRepository)(nil)
)

// Ping は DB 接続を確認する（DB インターフェース実装）
func (r *PgAdminRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAdmin(scan func(...any) error) (*model.Admin, error) {
	var a model.Admin
	err := scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const adminSelectCols = `id, email, password_hash, created_at`

// FindByID は ID で管理者を取得する
func (r *PgAdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminSelectCols+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row.Scan)
}

// FindByEmail はメールアドレス（大文字小文字を区別しない）で管理者を取得する
func (r *PgAdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+adminSelectCols+` FROM admins WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanAdmin(row.Scan)
}

// Create は管理者を登録し ID と作成日時をセットする
func (r *PgAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO admins (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		strings.ToLower(strings.TrimSpace(admin.Email)), admin.PasswordHash,
	).Scan(&admin.ID, &admin.CreatedAt)
}
