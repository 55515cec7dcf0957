// Package session remembers which account the user connected, across CLI
// runs, without keeping the wallet unlocked.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
)

// Claims carry the connected account address.
type Claims struct {
	jwt.RegisteredClaims
	Address string `json:"addr"`
}

// Issue signs a session token for address valid for ttl.
func Issue(address common.Address, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Address: address.Hex(),
	})
	return token.SignedString(secret)
}

// Parse validates token and returns the connected address. Expired, forged
// or malformed tokens yield common.ErrUnauthorized.
func Parse(tokenString string, secret []byte) (common.Address, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.Address{}, fmt.Errorf("%w: session expired", bcommon.ErrUnauthorized)
		}
		return common.Address{}, fmt.Errorf("%w: %w", bcommon.ErrUnauthorized, err)
	}
	if !token.Valid || !common.IsHexAddress(claims.Address) {
		return common.Address{}, fmt.Errorf("%w: invalid session token", bcommon.ErrUnauthorized)
	}
	return common.HexToAddress(claims.Address), nil
}
