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

// eventCols — список колонок для SELECT (порядок соответствует scanEvent).
const eventCols = `id, title, description, location, starts_at, ends_at, COALESCE(created_by,''), created_at, updated_at`

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func scanEvent(s interface{ Scan(dest ...any) error }, e *model.Event) error {
	return s.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	defer logger.DeferLogDuration("event.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (id, title, description, location, starts_at, ends_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	defer logger.DeferLogDuration("event.GetByID", time.Now())()
	e := &model.Event{}
	row := r.pool.QueryRow(ctx, `SELECT `+eventCols+` FROM events WHERE id = $1`, id)
	if err := scanEvent(row, e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("eventRepo.GetByID: %w", err)
	}
	return e, nil
}

// ListByMonth возвращает события, начинающиеся в указанном месяце (UTC),
// по возрастанию starts_at. Публичная выдача для календаря.
func (r *EventRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	defer logger.DeferLogDuration("event.ListByMonth", time.Now())()
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventCols+` FROM events
		 WHERE starts_at >= $1 AND starts_at < $2
		 ORDER BY starts_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.ListByMonth: %w", err)
	}
	defer rows.Close()
	var list []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("eventRepo.ListByMonth scan: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventRepo.ListByMonth rows: %w", err)
	}
	return list, nil
}

func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	defer logger.DeferLogDuration("event.Update", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET title = $1, description = $2, location = $3,
		   starts_at = $4, ends_at = $5, updated_at = $6
		 WHERE id = $7`,
		e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет событие; заявки на участие удаляются каскадно.
func (r *EventRepository) Delete(ctx context.Context, id string) (bool, error) {
	defer logger.DeferLogDuration("event.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("eventRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
