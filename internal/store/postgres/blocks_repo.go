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

type UnavailabilityBlockRepo struct {
	db *bun.DB
}

func NewUnavailabilityBlockRepo(db *bun.DB) *UnavailabilityBlockRepo {
	return &UnavailabilityBlockRepo{db: db}
}

func (r *UnavailabilityBlockRepo) Create(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error) {
	_, err := r.db.NewInsert().Model(&block).Exec(ctx)
	if err != nil {
		return domain.UnavailabilityBlock{}, err
	}
	return block, nil
}

func (r *UnavailabilityBlockRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.UnavailabilityBlock, error) {
	var block domain.UnavailabilityBlock
	err := r.db.NewSelect().
		Model(&block).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UnavailabilityBlock{}, store.ErrNotFound
		}
		return domain.UnavailabilityBlock{}, err
	}
	return block, nil
}

func (r *UnavailabilityBlockRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.UnavailabilityBlock, error) {
	var rows []domain.UnavailabilityBlock
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UnavailabilityBlockRepo) Update(ctx context.Context, block domain.UnavailabilityBlock) (domain.UnavailabilityBlock, error) {
	res, err := r.db.NewUpdate().
		Model(&block).
		Column("start_time", "end_time", "reason", "updated_at").
		Where("professional_id = ?", block.ProfessionalID).
		Where("id = ?", block.ID).
		Exec(ctx)
	if err != nil {
		return domain.UnavailabilityBlock{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.UnavailabilityBlock{}, err
	}
	if affected == 0 {
		return domain.UnavailabilityBlock{}, store.ErrNotFound
	}
	return block, nil
}

func (r *UnavailabilityBlockRepo) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.UnavailabilityBlock)(nil)).
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

func (r *UnavailabilityBlockRepo) Overlaps(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	q := r.db.NewSelect().
		Model((*domain.UnavailabilityBlock)(nil)).
		Where("professional_id = ?", professionalID).
		Where("start_time < ?", end).
		Where("end_time > ?", start)
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
