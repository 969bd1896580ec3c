package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDuplicateRating = errors.New("user has already rated this book")

type Book struct {
	BaseModel
	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Author  string `json:"author" gorm:"type:varchar(255);not null"`
	Year    int    `json:"year" gorm:"not null"`
	Genre   string `json:"genre" gorm:"type:varchar(100);not null"`
	ImageURL  string `json:"imageUrl" gorm:"type:text;not null"`
	ImageName string `json:"-" gorm:"type:text;not null"`
	// Owner of the record. Stored as a plain string for compatibility with
	// ownerless legacy records (see the update/delete fallback in handlers).
	UserID        string   `json:"userId,omitempty" gorm:"type:varchar(64);index"`
	Ratings       []Rating `json:"ratings" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	AverageRating float64  `json:"averageRating" gorm:"not null;default:0"`
}

// Rating is one user's grade for one book. Immutable once added; at most one
// per userId per book, enforced by AddRating before insertion.
type Rating struct {
	ID     uint      `json:"-" gorm:"primaryKey"`
	BookID uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	UserID string    `json:"userId" gorm:"type:varchar(64);not null"`
	Grade  float64   `json:"grade" gorm:"not null"`
}

// ComputeAverage is the rating aggregator: 0 for an empty list, otherwise the
// arithmetic mean of the grades.
func ComputeAverage(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r.Grade
	}
	return sum / float64(len(ratings))
}

// RecomputeAverage restores the derived-average invariant from the loaded
// ratings. Every mutation path that touches Ratings must go through this (or
// through AddRating, which calls it).
func (b *Book) RecomputeAverage() {
	b.AverageRating = ComputeAverage(b.Ratings)
}

// AddRating appends a rating and recomputes the average. Fails with
// ErrDuplicateRating if the user already rated this book.
func (b *Book) AddRating(userID string, grade float64) error {
	for _, r := range b.Ratings {
		if r.UserID == userID {
			return ErrDuplicateRating
		}
	}
	b.Ratings = append(b.Ratings, Rating{BookID: b.ID, UserID: userID, Grade: grade})
	b.RecomputeAverage()
	return nil
}

// BeforeSave re-derives the average whenever a book is persisted with its
// ratings loaded, so a full-struct save cannot sneak an inconsistent value
// past the store. Saves without loaded ratings leave the stored value alone.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	if b.Ratings != nil {
		b.RecomputeAverage()
	}
	return nil
}
