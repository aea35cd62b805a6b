package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inferbench/inferbench/pkg/models"
)

// ErrReportNotFound indicates the requested report does not exist.
var ErrReportNotFound = errors.New("report not found")

// ReportStore persists benchmark reports.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a report store over the given database.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save stores a report. Missing IDs and timestamps are filled in.
func (s *ReportStore) Save(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = "report-" + uuid.New().String()[:8]
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	fullJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, timestamp,
			total_tests, successful, failed,
			avg_tokens_per_second, avg_cpu_percent, peak_memory_gb,
			utilization, error, full_report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Timestamp,
		report.Summary.TotalTests, report.Summary.Successful, report.Summary.Failed,
		report.Summary.AvgTokensPerSecond, report.Summary.AvgCPUPercent, report.Summary.PeakMemoryGB,
		report.Summary.Utilization, report.Error, string(fullJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// Get returns a single report by ID.
func (s *ReportStore) Get(ctx context.Context, id string) (*models.Report, error) {
	var fullJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT full_report_json FROM reports WHERE id = ?`, id,
	).Scan(&fullJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(fullJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListRecent returns up to limit reports, newest first.
func (s *ReportStore) ListRecent(ctx context.Context, limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT full_report_json FROM reports ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var fullJSON string
		if err := rows.Scan(&fullJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		var report models.Report
		if err := json.Unmarshal([]byte(fullJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}
