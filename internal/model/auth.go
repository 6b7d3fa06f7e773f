package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims shared by every service
type UserClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// CredentialsRequest is the body of signup and login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned after a successful signup or login
type TokenResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
