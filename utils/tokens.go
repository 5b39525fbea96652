package utils

import (
	"crypto/rand"
)

// GenerateShortToken returns a URL-safe random string of the given length (bytes*2 hex).
func GenerateShortToken(n int) string {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	// hex encoding doubles length; that's fine for uniqueness and safety
	const hex = "0123456789abcdef"
	out := make([]byte, n*2)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out)
}

// AccessToken is the claims shape embedded in access tokens by the identity
// service. This server only verifies tokens; issuance lives elsewhere.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"` // buyer, seller, agent, admin, super_admin
}
