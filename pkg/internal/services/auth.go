package services

import (
	"fmt"
	"strconv"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type AccountClaims struct {
	Name   string  `json:"name"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate verifies an access token issued by the identity collaborator
// and resolves it into an account. Token issuance happens elsewhere; this
// service only ever checks signatures.
func Authenticate(tk string) (models.Account, error) {
	var account models.Account
	var claims AccountClaims
	token, err := jwt.ParseWithClaims(tk, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return []byte(viper.GetString("security.access_token_secret")), nil
	})
	if err != nil {
		return account, err
	}
	if !token.Valid {
		return account, fmt.Errorf("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return account, fmt.Errorf("malformed subject: %v", err)
	}

	account = models.Account{
		ID:     uint(id),
		Name:   claims.Name,
		Nick:   claims.Nick,
		Avatar: claims.Avatar,
	}
	return account, nil
}
