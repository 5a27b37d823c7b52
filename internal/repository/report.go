package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"quillblog/internal/model"
)

const reportColumns = `id, comment_id, reporter_id, reason, details, status,
	handled_by, handled_at, comment_deleted, created_at`

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts a pending report. The id is generated here when unset.
func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	query := `
		INSERT INTO comment_reports (id, comment_id, reporter_id, reason, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reportColumns

	err := r.db.QueryRowxContext(ctx, query,
		report.ID,
		report.CommentID,
		report.ReporterID,
		report.Reason,
		report.Details,
		model.ReportPending,
	).StructScan(report)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return model.ErrCommentNotFound
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetForUpdate locks the report row for the rest of tx.
func (r *reportRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, reportID uuid.UUID) (*model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM comment_reports WHERE id = $1 FOR UPDATE`

	var report model.Report
	err := tx.GetContext(ctx, &report, query, reportID)
	if err == sql.ErrNoRows {
		return nil, model.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock report: %w", err)
	}
	return &report, nil
}

// UpdateStatus closes a report and records who handled it.
func (r *reportRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, reportID uuid.UUID, status model.ReportStatus, handledBy int64, commentDeleted bool) (*model.Report, error) {
	query := `
		UPDATE comment_reports
		SET status = $1, handled_by = $2, handled_at = NOW(), comment_deleted = $3
		WHERE id = $4
		RETURNING ` + reportColumns

	var report model.Report
	err := tx.GetContext(ctx, &report, query, status, handledBy, commentDeleted, reportID)
	if err == sql.ErrNoRows {
		return nil, model.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	return &report, nil
}

// List returns reports newest first. An empty status lists every report.
func (r *reportRepository) List(ctx context.Context, status model.ReportStatus, page model.PageRequest) ([]model.Report, int, error) {
	where := ""
	var args []interface{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comment_reports `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	if total == 0 {
		return []model.Report{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM comment_reports %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		reportColumns, where, n+1, n+2)
	args = append(args, page.Limit, page.Offset())

	var reports []model.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}
