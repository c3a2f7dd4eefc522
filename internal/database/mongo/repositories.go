package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
)

// GetCaseByFilename retrieves the case registered for a gallery image.
func (s *Store) GetCaseByFilename(ctx context.Context, filename string) (*database.Case, error) {
	var doc caseDoc
	err := s.with(ctx, casesCollection, func(c *mgo.Collection) error {
		return c.Find(bson.M{"image_filename": filename}).One(&doc)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	out := doc.toCase(doc.ID.Hex())
	return &out, nil
}

// ListCases returns all cases, newest first.
func (s *Store) ListCases(ctx context.Context) ([]database.Case, error) {
	var docs []caseDoc
	err := s.with(ctx, casesCollection, func(c *mgo.Collection) error {
		return c.Find(nil).Sort("-created_at", "image_filename").All(&docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	out := make([]database.Case, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCase(d.ID.Hex()))
	}
	return out, nil
}

// InsertCase stores a new case and assigns its ID.
func (s *Store) InsertCase(ctx context.Context, cs *database.Case) error {
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = time.Now().UTC()
	}
	doc := caseDoc{ID: bson.NewObjectId(), caseFields: fieldsFromCase(cs)}
	err := s.with(ctx, casesCollection, func(c *mgo.Collection) error {
		return c.Insert(doc)
	})
	if err != nil {
		return fmt.Errorf("insert case %s: %w", cs.ImageFilename, err)
	}
	cs.ID = doc.ID.Hex()
	return nil
}

// DeleteCaseByFilename removes the case for a gallery image.
func (s *Store) DeleteCaseByFilename(ctx context.Context, filename string) error {
	return mapErr(s.with(ctx, casesCollection, func(c *mgo.Collection) error {
		return c.Remove(bson.M{"image_filename": filename})
	}))
}

// InsertDetection appends a detection with an embedded case snapshot.
func (s *Store) InsertDetection(ctx context.Context, d *database.Detection) error {
	doc := detectionDoc{
		ID:              bson.NewObjectId(),
		CriminalName:    d.CriminalName,
		CriminalDetails: fieldsFromCase(&d.CriminalDetails),
		DetectedAt:      d.DetectedAt.UTC(),
		Source:          d.Source,
		Status:          d.Status,
	}
	err := s.with(ctx, detectionsCollection, func(c *mgo.Collection) error {
		return c.Insert(doc)
	})
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	d.ID = doc.ID.Hex()
	return nil
}

// ListDetections returns all detections, most recent first.
func (s *Store) ListDetections(ctx context.Context) ([]database.Detection, error) {
	var docs []detectionDoc
	err := s.with(ctx, detectionsCollection, func(c *mgo.Collection) error {
		return c.Find(nil).Sort("-detected_at", "_id").All(&docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	out := make([]database.Detection, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDetection())
	}
	return out, nil
}

// CountDetections returns the number of stored detections.
func (s *Store) CountDetections(ctx context.Context) (int, error) {
	var n int
	err := s.with(ctx, detectionsCollection, func(c *mgo.Collection) error {
		var err error
		n, err = c.Count()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count detections: %w", err)
	}
	return n, nil
}

// DeleteDetection removes a detection by ID.
func (s *Store) DeleteDetection(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return mapErr(s.with(ctx, detectionsCollection, func(c *mgo.Collection) error {
		return c.RemoveId(oid)
	}))
}

// CreateUser stores a new user. The unique email index rejects duplicates.
func (s *Store) CreateUser(ctx context.Context, u *database.User) error {
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}
	doc := userDoc{
		ID:       bson.NewObjectId(),
		Name:     u.Name,
		Email:    u.Email,
		Password: u.PasswordHash,
		Phone:    u.Phone,
		Role:     u.Role,
		JoinDate: u.JoinDate.UTC(),
	}
	err := s.with(ctx, usersCollection, func(c *mgo.Collection) error {
		return c.Insert(doc)
	})
	if err != nil {
		if mgo.IsDup(err) {
			return database.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (s *Store) findUser(ctx context.Context, query bson.M) (*database.User, error) {
	var doc userDoc
	err := s.with(ctx, usersCollection, func(c *mgo.Collection) error {
		return c.Find(query).One(&doc)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return doc.toUser(), nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*database.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// ListUsers returns all users ordered by join date.
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	var docs []userDoc
	err := s.with(ctx, usersCollection, func(c *mgo.Collection) error {
		return c.Find(nil).Sort("joinDate", "email").All(&docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]database.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toUser())
	}
	return out, nil
}

// UpdateUserProfile applies the non-nil fields of upd and returns the updated user.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd database.ProfileUpdate) (*database.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if len(set) > 0 {
		err := s.with(ctx, usersCollection, func(c *mgo.Collection) error {
			return c.UpdateId(oid, bson.M{"$set": set})
		})
		if err != nil {
			return nil, mapErr(err)
		}
	}
	return s.GetUserByID(ctx, id)
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return mapErr(s.with(ctx, usersCollection, func(c *mgo.Collection) error {
		return c.UpdateId(oid, bson.M{"$set": bson.M{"role": role}})
	}))
}

// DeleteUser removes a user by ID.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return mapErr(s.with(ctx, usersCollection, func(c *mgo.Collection) error {
		return c.RemoveId(oid)
	}))
}
