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

type ScheduleRuleRepo struct {
	db *bun.DB
}

func NewScheduleRuleRepo(db *bun.DB) *ScheduleRuleRepo {
	return &ScheduleRuleRepo{db: db}
}

func (r *ScheduleRuleRepo) Create(ctx context.Context, rule domain.ScheduleRule) (domain.ScheduleRule, error) {
	_, err := r.db.NewInsert().Model(&rule).Exec(ctx)
	if err != nil {
		return domain.ScheduleRule{}, err
	}
	return rule, nil
}

func (r *ScheduleRuleRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ScheduleRule, error) {
	var rule domain.ScheduleRule
	err := r.db.NewSelect().
		Model(&rule).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ScheduleRule{}, store.ErrNotFound
		}
		return domain.ScheduleRule{}, err
	}
	return rule, nil
}

func (r *ScheduleRuleRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]domain.ScheduleRule, error) {
	var rows []domain.ScheduleRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		OrderExpr("weekday ASC, start_minute ASC, valid_from ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRuleRepo) Deactivate(ctx context.Context, professionalID, id uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*domain.ScheduleRule)(nil)).
		Set("active = FALSE").
		Set("updated_at = ?", time.Now().UTC()).
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

// CoversInstant narrows candidates by professional and derived weekday in
// SQL, then applies the full in-force and minute-range check in Go. The
// derived weekday is always 0..6, so NoFixedDay rules are never selected.
func (r *ScheduleRuleRepo) CoversInstant(ctx context.Context, professionalID uuid.UUID, instant time.Time) (bool, error) {
	var rows []domain.ScheduleRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		Where("weekday = ?", int(domain.WeekdayOfUTC(instant))).
		Where("active").
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
