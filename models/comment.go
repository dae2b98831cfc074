package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is an append-only annotation on a report. Content is stored as written.
type Comment struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Report     primitive.ObjectID  `bson:"report" json:"report"`
	Author     *primitive.ObjectID `bson:"author,omitempty" json:"author,omitempty"`
	AuthorRole Role                `bson:"authorRole" json:"authorRole"`
	Content    string              `bson:"content" json:"content"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// Announcement is an admin broadcast
type Announcement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Pictures    []Image            `bson:"pictures" json:"pictures"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
