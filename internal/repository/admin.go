package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	defer logger.DeferLogDuration("admin.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (username, password_hash, display_name, enrolled_at)
		 VALUES ($1, $2, $3, $4)`,
		a.Username, a.PasswordHash, a.DisplayName, a.EnrolledAt,
	)
	if err != nil {
		return fmt.Errorf("adminRepo.Create: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	defer logger.DeferLogDuration("admin.GetByUsername", time.Now())()
	a := &model.Admin{}
	row := r.pool.QueryRow(ctx,
		`SELECT username, password_hash, display_name, enrolled_at
		 FROM admins WHERE username = $1`, username)
	if err := row.Scan(&a.Username, &a.PasswordHash, &a.DisplayName, &a.EnrolledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adminRepo.GetByUsername: %w", err)
	}
	return a, nil
}

func (r *AdminRepository) ListAll(ctx context.Context) ([]model.Admin, error) {
	defer logger.DeferLogDuration("admin.ListAll", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT username, password_hash, display_name, enrolled_at
		 FROM admins ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("adminRepo.ListAll: %w", err)
	}
	defer rows.Close()
	var list []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.Username, &a.PasswordHash, &a.DisplayName, &a.EnrolledAt); err != nil {
			return nil, fmt.Errorf("adminRepo.ListAll scan: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("adminRepo.ListAll rows: %w", err)
	}
	return list, nil
}

// DeleteByUsername удаляет администратора; его сессия и push-подписки
// удаляются каскадно (FK ON DELETE CASCADE).
func (r *AdminRepository) DeleteByUsername(ctx context.Context, username string) (bool, error) {
	defer logger.DeferLogDuration("admin.DeleteByUsername", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("adminRepo.DeleteByUsername: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	defer logger.DeferLogDuration("admin.UpdatePassword", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET password_hash = $1 WHERE username = $2`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("adminRepo.UpdatePassword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
