package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity token payload, {"id": accountID}.
type Claims struct {
	AccountID string `json:"id"`
	//has standard jwt field issued at, expires at etc
	jwt.RegisteredClaims
}
