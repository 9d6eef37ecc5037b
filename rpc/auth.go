package rpc

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// claims carried in an RPC bearer token: the node ID it identifies, plus the
// standard issued-at and expiry times.
type claims struct {
	jwt.RegisteredClaims
	NodeID string `json:"node_id"`
}

// IssueToken signs a short-lived bearer token identifying nodeID, used by
// Client.SetBearerToken to authenticate gateway→backend RPC calls.
func IssueToken(secret, nodeID string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		NodeID: nodeID,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(secret))
}

// VerifyToken validates tokenString against secret and returns the node ID
// it was issued for.
func VerifyToken(secret, tokenString string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("rpc: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return "", fmt.Errorf("rpc: invalid token")
	}
	return c.NodeID, nil
}
