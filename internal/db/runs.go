package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/footsync/internal/contact"
	"github.com/banshee-data/footsync/internal/footsync"
	"github.com/banshee-data/footsync/internal/version"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("analysis run not found")

// AnalysisRun is one stored invocation of the generator.
type AnalysisRun struct {
	RunID       string          `json:"run_id"`
	ClipName    string          `json:"clip_name"`
	Method      contact.Method  `json:"method"`
	Locomotion  string          `json:"locomotion"`
	ParamsJSON  json.RawMessage `json:"params"`
	Duration    float64         `json:"duration"`
	CreatedAt   time.Time       `json:"created_at"`
	ToolVersion string          `json:"tool_version"`
}

// StoredResult is a raw detector result tagged with its foot. FootIndex is
// the foot's position in the report; labels need not be unique.
type StoredResult struct {
	FootIndex int    `json:"foot_index"`
	FootLabel string `json:"foot_label"`
	Bone      string `json:"bone"`
	contact.Result
}

// StoredMarker is a selected sync marker.
type StoredMarker struct {
	FootIndex     int     `json:"foot_index"`
	FootLabel     string  `json:"foot_label"`
	MarkerName    string  `json:"marker_name"`
	Time          float64 `json:"time"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence"`
}

// RecordReport stores a report and its settings in one transaction and
// returns the new run id.
func (db *DB) RecordReport(ctx context.Context, r *footsync.Report, params any) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}

	runID := uuid.NewString()
	created := db.clock.Now().Unix()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, clip_name, method, locomotion, params_json, duration_s, created_unix, tool_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Clip, r.Method.String(), r.Preset.Type.String(), string(paramsJSON),
		r.Duration, created, version.Version,
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	resultStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contact_results (
			run_id, foot_index, foot_label, bone_name, seq, time_s, confidence, is_contact, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer resultStmt.Close()

	markerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sync_markers (
			run_id, foot_index, foot_label, marker_name, time_s, confidence, low_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare marker insert: %w", err)
	}
	defer markerStmt.Close()

	for fi, f := range r.Feet {
		for i, res := range f.Results {
			if _, err := resultStmt.ExecContext(ctx,
				runID, fi, f.Label, f.Foot.Bone, i, res.Time, res.Confidence, res.IsContact, res.Source.String(),
			); err != nil {
				return "", fmt.Errorf("failed to insert result for %s: %w", f.Label, err)
			}
		}
		for _, m := range f.Selection.Markers {
			if _, err := markerStmt.ExecContext(ctx,
				runID, fi, f.Label, f.Foot.MarkerName, m.Time, m.Confidence, f.Selection.LowConfidence,
			); err != nil {
				return "", fmt.Errorf("failed to insert marker for %s: %w", f.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `run_id, clip_name, method, locomotion, params_json, duration_s, created_unix, tool_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (AnalysisRun, error) {
	var (
		run     AnalysisRun
		method  string
		params  string
		created int64
	)
	if err := row.Scan(&run.RunID, &run.ClipName, &method, &run.Locomotion, &params,
		&run.Duration, &created, &run.ToolVersion); err != nil {
		return AnalysisRun{}, err
	}
	m, err := contact.ParseMethod(method)
	if err != nil {
		return AnalysisRun{}, fmt.Errorf("run %s: %w", run.RunID, err)
	}
	run.Method = m
	run.ParamsJSON = json.RawMessage(params)
	run.CreatedAt = time.Unix(created, 0).UTC()
	return run, nil
}

// GetRun returns a single run.
func (db *DB) GetRun(ctx context.Context, runID string) (AnalysisRun, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs ORDER BY created_unix DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResults returns the raw results of a run ordered by foot, then detector output order.
func (db *DB) RunResults(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT foot_index, foot_label, bone_name, time_s, confidence, is_contact, source
		FROM contact_results WHERE run_id = ? ORDER BY foot_index, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var (
			r      StoredResult
			source string
		)
		if err := rows.Scan(&r.FootIndex, &r.FootLabel, &r.Bone, &r.Time, &r.Confidence, &r.IsContact, &source); err != nil {
			return nil, err
		}
		if r.Source, err = contact.ParseMethod(source); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunMarkers returns the selected markers of a run ordered by foot and time.
func (db *DB) RunMarkers(ctx context.Context, runID string) ([]StoredMarker, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT foot_index, foot_label, marker_name, time_s, confidence, low_confidence
		FROM sync_markers WHERE run_id = ? ORDER BY foot_index, time_s`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers: %w", err)
	}
	defer rows.Close()

	var out []StoredMarker
	for rows.Next() {
		var m StoredMarker
		if err := rows.Scan(&m.FootIndex, &m.FootLabel, &m.MarkerName, &m.Time, &m.Confidence, &m.LowConfidence); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteRun removes a run together with its results and markers.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
