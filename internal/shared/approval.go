package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalAction enumerates approval log actions.
type ApprovalAction string

const (
	// ApprovalApprove marks an approved booking request.
	ApprovalApprove ApprovalAction = "APPROVE"
	// ApprovalReject marks a declined booking request.
	ApprovalReject ApprovalAction = "REJECT"
)

// ApprovalLog represents a single approval decision.
type ApprovalLog struct {
	ID        int64          `json:"id"`
	RefID     uuid.UUID      `json:"ref_id"`
	BookingID string         `json:"booking_id"`
	ActorID   string         `json:"actor_id"`
	Action    ApprovalAction `json:"action"`
	Note      string         `json:"note"`
	At        time.Time      `json:"at"`
}

// ApprovalSink receives approval decisions.
type ApprovalSink interface {
	Record(ctx context.Context, log ApprovalLog) error
}

// ApprovalRecorder persists approval history. A nil pool only logs.
type ApprovalRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewApprovalRecorder constructs ApprovalRecorder.
func NewApprovalRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalRecorder{pool: pool, logger: logger}
}

// Record writes an approval entry.
func (r *ApprovalRecorder) Record(ctx context.Context, log ApprovalLog) error {
	if r == nil {
		return errors.New("approval recorder not initialised")
	}
	if log.BookingID == "" {
		return errors.New("approval booking id required")
	}
	if log.ActorID == "" {
		return errors.New("approval actor required")
	}
	if log.RefID == uuid.Nil {
		return errors.New("approval ref id required")
	}
	if log.Action == "" {
		return errors.New("approval action required")
	}
	if r.pool == nil {
		r.logger.Info("approval decision", slog.String("booking_id", log.BookingID), slog.String("action", string(log.Action)), slog.String("actor", log.ActorID))
		return nil
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO approvals (ref_id, booking_id, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.RefID, log.BookingID, log.ActorID, string(log.Action), log.Note, at)
	if err != nil {
		r.logger.Error("record approval", slog.Any("error", err))
		return err
	}
	return nil
}

// History returns approval decisions for a booking, oldest first.
func (r *ApprovalRecorder) History(ctx context.Context, bookingID string) ([]ApprovalLog, error) {
	if r == nil || r.pool == nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, ref_id, booking_id, actor_id, action, note, at
FROM approvals WHERE booking_id=$1 ORDER BY at ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ApprovalLog
	for rows.Next() {
		var l ApprovalLog
		var action string
		if err := rows.Scan(&l.ID, &l.RefID, &l.BookingID, &l.ActorID, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = ApprovalAction(action)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
