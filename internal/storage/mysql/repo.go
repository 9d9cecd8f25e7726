// Package mysql implements domain.Store on MySQL. Conditional writes are
// guarded UPDATEs checked through affected-row counts, composed inside one SQL
// transaction per Apply call. The DSN must set clientFoundRows=true so a
// guarded UPDATE reports matched rows rather than changed rows.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"summerhouse/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Apply(ctx context.Context, tx domain.Tx) error {
	if tx.Empty() {
		return nil
	}
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbtx.Rollback() }()

	now := time.Now().UTC()
	conflict := &domain.ConflictError{}

	if ins := tx.InsertReservation; ins != nil {
		if _, err := dbtx.ExecContext(ctx, insertReservationSQL,
			ins.ID, ins.OwnerID,
			domain.DateKey(ins.CheckIn), domain.DateKey(ins.CheckOut),
			ins.Adults, ins.Children,
			string(ins.Status), string(ins.PaymentStatus),
			ins.Nights, ins.NightlyRate, ins.CleaningFee, ins.TotalAmount,
			valStr(ins.SpecialRequests), ins.CreatedAt.UTC(), ins.UpdatedAt.UTC(),
			valTime(ins.CancelledAt), valStr(ins.CancellationReason), valInt(ins.RefundAmount),
		); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 { // duplicate key: id raced
				conflict.ReservationID = ins.ID
				return conflict
			}
			return err
		}
	}

	if upd := tx.UpdateReservation; upd != nil {
		res := upd.Reservation
		result, err := dbtx.ExecContext(ctx, updateReservationSQL,
			res.OwnerID,
			domain.DateKey(res.CheckIn), domain.DateKey(res.CheckOut),
			res.Adults, res.Children,
			string(res.Status), string(res.PaymentStatus),
			res.Nights, res.NightlyRate, res.CleaningFee, res.TotalAmount,
			valStr(res.SpecialRequests), res.UpdatedAt.UTC(),
			valTime(res.CancelledAt), valStr(res.CancellationReason), valInt(res.RefundAmount),
			res.ID, string(upd.ExpectedStatus),
		)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			conflict.ReservationID = res.ID
			return conflict
		}
	}

	for _, c := range tx.Claims {
		day := domain.DateKey(c.Date)
		if _, err := dbtx.ExecContext(ctx, ensureCalendarRowSQL, day, now); err != nil {
			return err
		}
		result, err := dbtx.ExecContext(ctx, claimDateSQL, c.ReservationID, now, day)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			// Keep probing remaining claims so the caller sees every
			// conflicting date, then reject the whole batch.
			conflict.Dates = append(conflict.Dates, domain.Day(c.Date))
		}
	}

	for _, rel := range tx.Releases {
		day := domain.DateKey(rel.Date)
		if rel.Owned {
			result, err := dbtx.ExecContext(ctx, releaseOwnedDateSQL, now, day, rel.ReservationID)
			if err != nil {
				return err
			}
			if n, err := result.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				conflict.Dates = append(conflict.Dates, domain.Day(rel.Date))
			}
			continue
		}
		if _, err := dbtx.ExecContext(ctx, releaseDateSQL, day, now); err != nil {
			return err
		}
	}

	if len(conflict.Dates) > 0 {
		return conflict
	}
	return dbtx.Commit()
}

func (r *Repo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx, getReservationSQL, id))
}

func (r *Repo) ListReservationsByOwner(ctx context.Context, ownerID string) ([]domain.ReservationSummary, error) {
	rows, err := r.db.QueryContext(ctx, listByOwnerSQL, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReservationSummary
	for rows.Next() {
		var sum domain.ReservationSummary
		var status string
		if err := rows.Scan(&sum.ID, &sum.CheckIn, &sum.CheckOut, &status, &sum.TotalAmount); err != nil {
			return nil, err
		}
		sum.Status = domain.ReservationStatus(status)
		sum.CheckIn = domain.Day(sum.CheckIn)
		sum.CheckOut = domain.Day(sum.CheckOut)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *Repo) ListConfirmedEnded(ctx context.Context, before time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, listConfirmedEndedSQL, domain.DateKey(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) GetCalendarRange(ctx context.Context, start, end time.Time) ([]domain.CalendarEntry, error) {
	rows, err := r.db.QueryContext(ctx, getCalendarRangeSQL, domain.DateKey(start), domain.DateKey(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CalendarEntry
	for rows.Next() {
		var e domain.CalendarEntry
		var status string
		var resID, blockReason sql.NullString
		if err := rows.Scan(&e.Date, &status, &resID, &blockReason, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Date = domain.Day(e.Date)
		e.Status = domain.CalendarStatus(status)
		if resID.Valid {
			v := resID.String
			e.ReservationID = &v
		}
		if blockReason.Valid {
			v := blockReason.String
			e.BlockReason = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) ListActiveSeasons(ctx context.Context) ([]domain.Season, error) {
	rows, err := r.db.QueryContext(ctx, listActiveSeasonsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Season
	for rows.Next() {
		var s domain.Season
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate,
			&s.NightlyRate, &s.MinimumNights, &s.CleaningFee, &s.Active); err != nil {
			return nil, err
		}
		s.StartDate = domain.Day(s.StartDate)
		s.EndDate = domain.Day(s.EndDate)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertSeason(ctx context.Context, s domain.Season) error {
	_, err := r.db.ExecContext(ctx, upsertSeasonSQL,
		s.ID, s.Name, domain.DateKey(s.StartDate), domain.DateKey(s.EndDate),
		s.NightlyRate, s.MinimumNights, s.CleaningFee, s.Active)
	return err
}

func (r *Repo) BlockDate(ctx context.Context, date time.Time, reason string) error {
	now := time.Now().UTC()
	day := domain.DateKey(date)
	if _, err := r.db.ExecContext(ctx, ensureCalendarRowSQL, day, now); err != nil {
		return fmt.Errorf("ensure calendar row %s: %w", day, err)
	}
	res, err := r.db.ExecContext(ctx, blockDateSQL, reason, now, day)
	if err != nil {
		return fmt.Errorf("block date %s: %w", day, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("block date %s: %w", day, err)
	}
	if n == 0 {
		return &domain.ConflictError{Dates: []time.Time{domain.Day(date)}}
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var res domain.Reservation
	var status, paymentStatus string
	var specialRequests, cancellationReason sql.NullString
	var cancelledAt sql.NullTime
	var refundAmount sql.NullInt64

	err := row.Scan(
		&res.ID, &res.OwnerID, &res.CheckIn, &res.CheckOut, &res.Adults, &res.Children,
		&status, &paymentStatus,
		&res.Nights, &res.NightlyRate, &res.CleaningFee, &res.TotalAmount,
		&specialRequests, &res.CreatedAt, &res.UpdatedAt,
		&cancelledAt, &cancellationReason, &refundAmount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.CheckIn = domain.Day(res.CheckIn)
	res.CheckOut = domain.Day(res.CheckOut)
	res.Status = domain.ReservationStatus(status)
	res.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if specialRequests.Valid {
		v := specialRequests.String
		res.SpecialRequests = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time.UTC()
		res.CancelledAt = &v
	}
	if cancellationReason.Valid {
		v := cancellationReason.String
		res.CancellationReason = &v
	}
	if refundAmount.Valid {
		v := int(refundAmount.Int64)
		res.RefundAmount = &v
	}
	return res, nil
}
