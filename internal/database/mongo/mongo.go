// Package mongo implements database.Store on MongoDB using globalsign/mgo.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
)

const (
	casesCollection      = "criminals"
	detectionsCollection = "detections"
	usersCollection      = "users"

	dialTimeout = 5 * time.Second
)

func init() {
	database.RegisterBackend("mongodb", Open)
}

// Store implements database.Store. Each operation runs on a copy of the root session.
type Store struct {
	session *mgo.Session
	dbName  string
}

// Open dials MongoDB and ensures the indexes the store relies on.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	session, err := mgo.DialWithTimeout(cfg.URL, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial mongodb: %w", err)
	}
	session.SetMode(mgo.Monotonic, true)

	name := cfg.Name
	if name == "" {
		name = "crimai"
	}
	s := &Store{session: session, dbName: name}

	if err := s.ensureIndexes(); err != nil {
		session.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes() error {
	sess := s.session.Copy()
	defer sess.Close()
	db := sess.DB(s.dbName)

	indexes := []struct {
		collection string
		index      mgo.Index
	}{
		{usersCollection, mgo.Index{Key: []string{"email"}, Unique: true}},
		{casesCollection, mgo.Index{Key: []string{"image_filename"}}},
		{detectionsCollection, mgo.Index{Key: []string{"-detected_at"}}},
	}
	for _, ix := range indexes {
		if err := db.C(ix.collection).EnsureIndex(ix.index); err != nil {
			return fmt.Errorf("ensure index on %s: %w", ix.collection, err)
		}
	}
	return nil
}

// with runs fn against a collection on a copied session.
func (s *Store) with(ctx context.Context, collection string, fn func(c *mgo.Collection) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sess := s.session.Copy()
	defer sess.Close()
	return fn(sess.DB(s.dbName).C(collection))
}

// objectID parses a hex id; malformed ids are reported as not found.
func objectID(id string) (bson.ObjectId, error) {
	if !bson.IsObjectIdHex(id) {
		return "", database.ErrNotFound
	}
	return bson.ObjectIdHex(id), nil
}

// mapErr converts mgo errors to database sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mgo.ErrNotFound):
		return database.ErrNotFound
	case mgo.IsDup(err):
		return database.ErrDuplicateEmail
	}
	return err
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sess := s.session.Copy()
	defer sess.Close()
	if err := sess.Ping(); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close closes the root session.
func (s *Store) Close() error {
	s.session.Close()
	return nil
}

var _ database.Store = (*Store)(nil)
