// Package storetest holds a behavioural suite shared by every database.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a database.Store against the behaviour the service relies on.
// The store must be empty.
func Run(t *testing.T, store database.Store) {
	ctx := context.Background()

	t.Run("Cases", func(t *testing.T) {
		older := &database.Case{
			Name:          "Old Case",
			Crime:         "Theft",
			ImageFilename: "old_case_20240101120000.jpg",
			ImagePath:     "faces_db/old_case_20240101120000.jpg",
			CreatedAt:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		}
		newer := &database.Case{
			Name:          "John Doe",
			Age:           "34",
			FatherName:    "Richard Doe",
			Gender:        "Male",
			BloodGroup:    "O+",
			Address:       "12 Main St",
			Crime:         "Fraud",
			Details:       "Known alias JD",
			ImageFilename: "John_Doe_20240301090000.jpg",
			ImagePath:     "faces_db/John_Doe_20240301090000.jpg",
			CreatedAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.InsertCase(ctx, older))
		require.NoError(t, store.InsertCase(ctx, newer))
		assert.NotEmpty(t, older.ID)
		assert.NotEqual(t, older.ID, newer.ID)

		got, err := store.GetCaseByFilename(ctx, newer.ImageFilename)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)
		assert.Equal(t, "John Doe", got.Name)
		assert.Equal(t, "Richard Doe", got.FatherName)
		assert.Equal(t, "O+", got.BloodGroup)
		assert.True(t, newer.CreatedAt.Equal(got.CreatedAt), "created_at round trip: %v vs %v", newer.CreatedAt, got.CreatedAt)

		_, err = store.GetCaseByFilename(ctx, "missing.jpg")
		assert.ErrorIs(t, err, database.ErrNotFound)

		list, err := store.ListCases(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ImageFilename, list[0].ImageFilename)

		require.NoError(t, store.DeleteCaseByFilename(ctx, older.ImageFilename))
		assert.ErrorIs(t, store.DeleteCaseByFilename(ctx, older.ImageFilename), database.ErrNotFound)
	})

	t.Run("Detections", func(t *testing.T) {
		snapshot := database.Case{Name: "John Doe", Crime: "Fraud", ImageFilename: "John_Doe_20240301090000.jpg"}
		first := &database.Detection{
			CriminalName:    "John Doe",
			CriminalDetails: snapshot,
			DetectedAt:      time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
			Source:          constants.DefaultDetectionSource,
			Status:          constants.DetectionStatus,
		}
		second := &database.Detection{
			CriminalName:    "John Doe",
			CriminalDetails: snapshot,
			DetectedAt:      time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
			Source:          "cctv-3",
			Status:          constants.DetectionStatus,
		}
		require.NoError(t, store.InsertDetection(ctx, first))
		require.NoError(t, store.InsertDetection(ctx, second))

		n, err := store.CountDetections(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list, err := store.ListDetections(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, "cctv-3", list[0].Source)
		assert.Equal(t, "Fraud", list[0].CriminalDetails.Crime)
		assert.Equal(t, constants.DetectionStatus, list[1].Status)

		require.NoError(t, store.DeleteDetection(ctx, first.ID))
		assert.ErrorIs(t, store.DeleteDetection(ctx, first.ID), database.ErrNotFound)
	})

	t.Run("DetectionOutlivesCase", func(t *testing.T) {
		c := &database.Case{
			Name:          "Mary Major",
			Age:           "41",
			FatherName:    "Mark Major",
			Gender:        "Female",
			BloodGroup:    "AB-",
			Address:       "7 Harbour Rd",
			Crime:         "Smuggling",
			Details:       "Scar on left hand",
			ImageFilename: "Mary_Major_20240501080000.jpg",
			ImagePath:     constants.FacesURLPrefix + "Mary_Major_20240501080000.jpg",
			CreatedAt:     time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.InsertCase(ctx, c))

		det := &database.Detection{
			CriminalName:    c.Name,
			CriminalDetails: c.Snapshot(),
			DetectedAt:      time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
			Source:          "gate-1",
			Status:          constants.DetectionStatus,
		}
		require.NoError(t, store.InsertDetection(ctx, det))

		require.NoError(t, store.DeleteCaseByFilename(ctx, c.ImageFilename))
		_, err := store.GetCaseByFilename(ctx, c.ImageFilename)
		require.ErrorIs(t, err, database.ErrNotFound)

		list, err := store.ListDetections(ctx)
		require.NoError(t, err)
		var got *database.Detection
		for i := range list {
			if list[i].ID == det.ID {
				got = &list[i]
			}
		}
		require.NotNil(t, got, "detection %s missing after its case was deleted", det.ID)

		want := c.Snapshot()
		details := got.CriminalDetails
		assert.True(t, want.CreatedAt.Equal(details.CreatedAt), "created_at: %v vs %v", want.CreatedAt, details.CreatedAt)
		details.CreatedAt = want.CreatedAt
		assert.Equal(t, want, details)
		assert.Equal(t, "Mary Major", got.CriminalName)
		assert.Equal(t, "gate-1", got.Source)

		require.NoError(t, store.DeleteDetection(ctx, det.ID))
	})

	t.Run("Users", func(t *testing.T) {
		u := &database.User{
			Name:         "Alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			Phone:        "555-0100",
			Role:         constants.RoleUser,
		}
		require.NoError(t, store.CreateUser(ctx, u))
		assert.NotEmpty(t, u.ID)
		assert.False(t, u.JoinDate.IsZero())

		dup := &database.User{Name: "Other", Email: "alice@example.com", PasswordHash: "x", Role: constants.RoleUser}
		assert.ErrorIs(t, store.CreateUser(ctx, dup), database.ErrDuplicateEmail)

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		_, err = store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, database.ErrNotFound)

		name := "Alice Smith"
		updated, err := store.UpdateUserProfile(ctx, u.ID, database.ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", updated.Name)
		assert.Equal(t, "555-0100", updated.Phone)

		_, err = store.UpdateUserProfile(ctx, "no-such-id", database.ProfileUpdate{Name: &name})
		assert.ErrorIs(t, err, database.ErrNotFound)

		require.NoError(t, store.SetUserRole(ctx, u.ID, constants.RoleAdmin))
		byID, err := store.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, byID.IsAdmin())
		assert.ErrorIs(t, store.SetUserRole(ctx, "no-such-id", constants.RoleAdmin), database.ErrNotFound)

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)

		require.NoError(t, store.DeleteUser(ctx, u.ID))
		assert.ErrorIs(t, store.DeleteUser(ctx, u.ID), database.ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
