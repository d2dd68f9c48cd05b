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

const participationCols = `id, event_id, name, contact, guests, note, status, created_at`

type ParticipationRepository struct {
	pool *pgxpool.Pool
}

func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{pool: pool}
}

func scanParticipation(s interface{ Scan(dest ...any) error }, p *model.Participation) error {
	return s.Scan(&p.ID, &p.EventID, &p.Name, &p.Contact, &p.Guests, &p.Note, &p.Status, &p.CreatedAt)
}

func (r *ParticipationRepository) Create(ctx context.Context, p *model.Participation) error {
	defer logger.DeferLogDuration("participation.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO participations (id, event_id, name, contact, guests, note, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.EventID, p.Name, p.Contact, p.Guests, p.Note, p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("participationRepo.Create: %w", err)
	}
	return nil
}

func (r *ParticipationRepository) GetByID(ctx context.Context, id string) (*model.Participation, error) {
	defer logger.DeferLogDuration("participation.GetByID", time.Now())()
	p := &model.Participation{}
	row := r.pool.QueryRow(ctx, `SELECT `+participationCols+` FROM participations WHERE id = $1`, id)
	if err := scanParticipation(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("participationRepo.GetByID: %w", err)
	}
	return p, nil
}

func (r *ParticipationRepository) ListByEventID(ctx context.Context, eventID string) ([]model.Participation, error) {
	defer logger.DeferLogDuration("participation.ListByEventID", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+participationCols+` FROM participations
		 WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("participationRepo.ListByEventID: %w", err)
	}
	defer rows.Close()
	var list []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := scanParticipation(rows, &p); err != nil {
			return nil, fmt.Errorf("participationRepo.ListByEventID scan: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("participationRepo.ListByEventID rows: %w", err)
	}
	return list, nil
}

func (r *ParticipationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	defer logger.DeferLogDuration("participation.UpdateStatus", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE participations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("participationRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ParticipationRepository) Delete(ctx context.Context, id string) (bool, error) {
	defer logger.DeferLogDuration("participation.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM participations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("participationRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
