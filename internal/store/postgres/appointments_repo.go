package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"turnos/backend/internal/domain"
	"turnos/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

// Create inserts the appointment while holding the professional's agenda
// lock. The appointments_no_overlap exclusion constraint backstops the
// resolver's optimistic check: a collision that slips through between
// check and insert comes back as store.ErrConflict, indistinguishable
// from an early-detected one.
func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProfessionalAgenda(ctx, tx, appt.ProfessionalID); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&appt).Exec(ctx)
		return mapOverlapViolation(err)
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
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

// UpdateTimes moves the appointment to a new interval under the
// professional's agenda lock. The exclusion constraint does not conflict
// with the row being updated, so a reschedule never collides with itself.
func (r *AppointmentRepo) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var appt domain.Appointment
		err := tx.NewSelect().
			Model(&appt).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		if err := lockProfessionalAgenda(ctx, tx, appt.ProfessionalID); err != nil {
			return err
		}

		appt.StartTime = start
		appt.EndTime = end
		_, err = tx.NewUpdate().
			Model(&appt).
			Column("start_time", "end_time", "updated_at").
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return mapOverlapViolation(err)
		}
		out = appt
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	res, err := r.db.NewUpdate().
		Model(&appt).
		Column("status", "cancelled_by", "cancellation_reason", "updated_at").
		Where("id = ?", appt.ID).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (r *AppointmentRepo) HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	q := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("professional_id = ?", professionalID).
		Where("status NOT IN (?, ?)", domain.AppointmentCancelled, domain.AppointmentCompleted).
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

func (r *AppointmentRepo) HasPatientConflict(ctx context.Context, professionalID, patientID uuid.UUID, start, end time.Time) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("professional_id = ?", professionalID).
		Where("patient_id = ?", patientID).
		Where("status NOT IN (?, ?)", domain.AppointmentCancelled, domain.AppointmentCompleted).
		Where("start_time < ?", end).
		Where("end_time > ?", start).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func lockProfessionalAgenda(ctx context.Context, tx bun.Tx, professionalID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", professionalID.String()).Exec(ctx)
	return err
}

func mapOverlapViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_no_overlap" {
		return store.ErrConflict
	}
	return err
}
