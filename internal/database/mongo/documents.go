package mongo

import (
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/globalsign/mgo/bson"
)

// caseFields mirrors database.Case without the id. It is both the case
// document body and the embedded detection snapshot.
type caseFields struct {
	Name          string    `bson:"name"`
	Age           string    `bson:"age"`
	FatherName    string    `bson:"father_name"`
	Gender        string    `bson:"gender"`
	BloodGroup    string    `bson:"blood_group"`
	Address       string    `bson:"address"`
	Crime         string    `bson:"crime"`
	Details       string    `bson:"details"`
	ImageFilename string    `bson:"image_filename"`
	ImagePath     string    `bson:"image_path"`
	CreatedAt     time.Time `bson:"created_at"`
}

type caseDoc struct {
	ID         bson.ObjectId `bson:"_id"`
	caseFields `bson:",inline"`
}

type detectionDoc struct {
	ID              bson.ObjectId `bson:"_id"`
	CriminalName    string        `bson:"criminal_name"`
	CriminalDetails caseFields    `bson:"criminal_details"`
	DetectedAt      time.Time     `bson:"detected_at"`
	Source          string        `bson:"source"`
	Status          string        `bson:"status"`
}

type userDoc struct {
	ID       bson.ObjectId `bson:"_id"`
	Name     string        `bson:"name"`
	Email    string        `bson:"email"`
	Password string        `bson:"password"`
	Phone    string        `bson:"phone"`
	Role     string        `bson:"role"`
	JoinDate time.Time     `bson:"joinDate"`
}

func fieldsFromCase(c *database.Case) caseFields {
	return caseFields{
		Name:          c.Name,
		Age:           c.Age,
		FatherName:    c.FatherName,
		Gender:        c.Gender,
		BloodGroup:    c.BloodGroup,
		Address:       c.Address,
		Crime:         c.Crime,
		Details:       c.Details,
		ImageFilename: c.ImageFilename,
		ImagePath:     c.ImagePath,
		CreatedAt:     c.CreatedAt.UTC(),
	}
}

func (f caseFields) toCase(id string) database.Case {
	return database.Case{
		ID:            id,
		Name:          f.Name,
		Age:           f.Age,
		FatherName:    f.FatherName,
		Gender:        f.Gender,
		BloodGroup:    f.BloodGroup,
		Address:       f.Address,
		Crime:         f.Crime,
		Details:       f.Details,
		ImageFilename: f.ImageFilename,
		ImagePath:     f.ImagePath,
		CreatedAt:     f.CreatedAt.UTC(),
	}
}

func (d detectionDoc) toDetection() database.Detection {
	return database.Detection{
		ID:              d.ID.Hex(),
		CriminalName:    d.CriminalName,
		CriminalDetails: d.CriminalDetails.toCase(""),
		DetectedAt:      d.DetectedAt.UTC(),
		Source:          d.Source,
		Status:          d.Status,
	}
}

func (d userDoc) toUser() *database.User {
	return &database.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Phone:        d.Phone,
		Role:         d.Role,
		JoinDate:     d.JoinDate.UTC(),
	}
}
