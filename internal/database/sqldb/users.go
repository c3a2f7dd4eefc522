package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, phone, role, join_date`

func scanUser(row rowScanner) (*database.User, error) {
	var u database.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.JoinDate); err != nil {
		return nil, err
	}
	u.JoinDate = u.JoinDate.UTC()
	return &u, nil
}

// CreateUser stores a new user and assigns its ID.
func (s *Store) CreateUser(ctx context.Context, u *database.User) error {
	id := uuid.NewString()
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, u.Name, u.Email, u.PasswordHash, u.Phone, u.Role, u.JoinDate.UTC())
	if err != nil {
		if s.pool.dialect.isUniqueViolation(err) {
			return database.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*database.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*database.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// ListUsers returns all users ordered by join date.
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY join_date, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []database.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// UpdateUserProfile applies the non-nil fields of upd and returns the updated user.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd database.ProfileUpdate) (*database.User, error) {
	if upd.Empty() {
		return s.GetUserByID(ctx, id)
	}

	var sets []string
	var args []any
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *upd.Phone)
	}
	args = append(args, id)

	// MySQL reports zero affected rows when values are unchanged, so existence is checked by re-reading.
	if _, err := s.pool.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return s.GetUserByID(ctx, id)
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id); err != nil {
		return fmt.Errorf("set role for %s: %w", id, err)
	}
	return nil
}

// DeleteUser removes a user by ID.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.pool.execAffecting(ctx, `DELETE FROM users WHERE id = ?`, id)
}
