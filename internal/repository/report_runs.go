package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

func (r *Repository) CreateReportRun(run *domain.ReportRun) error {
	query := `
		INSERT INTO report_runs (variant, start_date, end_date, row_count, movement_count, failure)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{run.Variant, run.StartDate, run.EndDate, run.RowCount, run.MovementCount, run.Failure}
	dst := []any{&run.ID, &run.CreatedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetReportRunByID(id int64) (*domain.ReportRun, error) {
	query := `
		SELECT variant, start_date, end_date, row_count, movement_count, failure, created_at, version
		FROM report_runs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	run := &domain.ReportRun{
		ID: id,
	}

	dst := []any{&run.Variant, &run.StartDate, &run.EndDate, &run.RowCount, &run.MovementCount, &run.Failure, &run.CreatedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return run, nil
}

// GetRecentReportRuns 按创建时间倒序返回最近的查询记录
func (r *Repository) GetRecentReportRuns(limit int) ([]*domain.ReportRun, error) {
	query := `
		SELECT id, variant, start_date, end_date, row_count, movement_count, failure, created_at, version
		FROM report_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.ReportRun, 0, limit)
	for rows.Next() {
		run := &domain.ReportRun{}
		dst := []any{&run.ID, &run.Variant, &run.StartDate, &run.EndDate, &run.RowCount, &run.MovementCount, &run.Failure, &run.CreatedAt, &run.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
