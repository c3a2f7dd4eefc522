package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/google/uuid"
)

const caseColumns = `id, name, age, father_name, gender, blood_group, address, crime, details,
	image_filename, image_path, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*database.Case, error) {
	var c database.Case
	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.FatherName, &c.Gender, &c.BloodGroup,
		&c.Address, &c.Crime, &c.Details, &c.ImageFilename, &c.ImagePath, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// GetCaseByFilename retrieves the case registered for a gallery image.
func (s *Store) GetCaseByFilename(ctx context.Context, filename string) (*database.Case, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE image_filename = ?`, filename)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", filename, err)
	}
	return c, nil
}

// ListCases returns all cases, newest first.
func (s *Store) ListCases(ctx context.Context) ([]database.Case, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC, image_filename`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []database.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// InsertCase stores a new case and assigns its ID.
func (s *Store) InsertCase(ctx context.Context, c *database.Case) error {
	id := uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO cases (`+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.Age, c.FatherName, c.Gender, c.BloodGroup, c.Address, c.Crime, c.Details,
		c.ImageFilename, c.ImagePath, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert case %s: %w", c.ImageFilename, err)
	}
	c.ID = id
	return nil
}

// DeleteCaseByFilename removes the case for a gallery image.
func (s *Store) DeleteCaseByFilename(ctx context.Context, filename string) error {
	return s.pool.execAffecting(ctx, `DELETE FROM cases WHERE image_filename = ?`, filename)
}
