package model

import "time"

// User is an account stored by the auth service
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username}
}
