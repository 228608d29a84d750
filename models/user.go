package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Password holds the bcrypt hash and is never
// written to JSON.
type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username   string               `bson:"username" json:"username"`
	Email      string               `bson:"email" json:"email"`
	Password   string               `bson:"password" json:"-"`
	ProjectIDs []primitive.ObjectID `bson:"projectIds" json:"projectIds"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type UserFilter struct {
	// IDs restricts the result to these users. Nil means all users.
	IDs []primitive.ObjectID
}
