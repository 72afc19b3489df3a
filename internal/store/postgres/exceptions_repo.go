package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/store"
)

type DateExceptionRepo struct {
	db *bun.DB
}

func NewDateExceptionRepo(db *bun.DB) *DateExceptionRepo {
	return &DateExceptionRepo{db: db}
}

func (r *DateExceptionRepo) Create(ctx context.Context, ex domain.DateException) (domain.DateException, error) {
	ex.Date = domain.DateOfUTC(ex.Date)
	_, err := r.db.NewInsert().Model(&ex).Exec(ctx)
	if err != nil {
		return domain.DateException{}, err
	}
	return ex, nil
}

func (r *DateExceptionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.DateException, error) {
	var ex domain.DateException
	err := r.db.NewSelect().
		Model(&ex).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DateException{}, store.ErrNotFound
		}
		return domain.DateException{}, err
	}
	return ex, nil
}

func (r *DateExceptionRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.DateException, error) {
	var rows []domain.DateException
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		Where("date >= ?", domain.DateOfUTC(from)).
		Where("date < ?", domain.DateOfUTC(to)).
		OrderExpr("date ASC, start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DateExceptionRepo) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.DateException)(nil)).
		Where("professional_id = ?", professionalID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *DateExceptionRepo) CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error) {
	var rows []domain.DateException
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		Where("date = ?", domain.DateOfUTC(instant)).
		Scan(ctx)
	if err != nil {
		return false, err
	}
	for i := range rows {
		if rows[i].CoversInstant(instant) {
			return true, nil
		}
	}
	return false, nil
}
