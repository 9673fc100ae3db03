package models

import "time"

// User is the persisted identity record. UserName is unique and immutable;
// Favourites keeps insertion order and never contains duplicates.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	UserName     string    `bson:"userName" json:"userName"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Favourites   []string  `bson:"favourites" json:"favourites"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}
