package sqldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/google/uuid"
)

// InsertDetection appends a detection. The case snapshot is stored as JSON.
func (s *Store) InsertDetection(ctx context.Context, d *database.Detection) error {
	details, err := json.Marshal(d.CriminalDetails)
	if err != nil {
		return fmt.Errorf("encode criminal details: %w", err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `INSERT INTO detections
		(id, criminal_name, criminal_details, detected_at, source, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, d.CriminalName, string(details), d.DetectedAt.UTC(), d.Source, d.Status)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	d.ID = id
	return nil
}

// ListDetections returns all detections, most recent first.
func (s *Store) ListDetections(ctx context.Context) ([]database.Detection, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, criminal_name, criminal_details, detected_at, source, status
		FROM detections ORDER BY detected_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	var out []database.Detection
	for rows.Next() {
		var d database.Detection
		var details string
		if err := rows.Scan(&d.ID, &d.CriminalName, &details, &d.DetectedAt, &d.Source, &d.Status); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &d.CriminalDetails); err != nil {
			return nil, fmt.Errorf("decode criminal details of %s: %w", d.ID, err)
		}
		d.DetectedAt = d.DetectedAt.UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detections: %w", err)
	}
	return out, nil
}

// CountDetections returns the number of stored detections.
func (s *Store) CountDetections(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM detections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count detections: %w", err)
	}
	return n, nil
}

// DeleteDetection removes a detection by ID.
func (s *Store) DeleteDetection(ctx context.Context, id string) error {
	return s.pool.execAffecting(ctx, `DELETE FROM detections WHERE id = ?`, id)
}
