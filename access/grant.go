// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package access

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultGrantTTL = 10 * time.Minute

// GrantClaims is the payload of an unlock grant.
type GrantClaims struct {
	Level Level `json:"level"`
	jwt.RegisteredClaims
}

// Granter issues signed unlock grants after a successful key
// exchange, so that other tools can prove the level was opened
// without replaying the exchange.
type Granter struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration    // Grant lifetime (default 10m).
	Now      func() time.Time // Clock (default time.Now).
}

// Issue emits an EdDSA-signed grant for a level.
func (gr *Granter) Issue(level Level) (grant string, err error) {
	now := time.Now
	if gr.Now != nil {
		now = gr.Now
	}
	ttl := gr.TTL
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}

	at := now()
	claims := &GrantClaims{
		Level: level,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    gr.Issuer,
			Audience:  jwt.ClaimStrings{gr.Audience},
			IssuedAt:  jwt.NewNumericDate(at),
			ExpiresAt: jwt.NewNumericDate(at.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)

	return token.SignedString(gr.Key)
}

// Verifier validates unlock grants.
type Verifier struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time // Clock (default time.Now).
}

// Verify checks the signature, issuer, audience, and expiry of a
// grant and returns its level.
func (vr *Verifier) Verify(grant string) (level Level, err error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"EdDSA"}),
	}
	if vr.Issuer != "" {
		options = append(options, jwt.WithIssuer(vr.Issuer))
	}
	if vr.Audience != "" {
		options = append(options, jwt.WithAudience(vr.Audience))
	}
	if vr.Now != nil {
		options = append(options, jwt.WithTimeFunc(vr.Now))
	}

	claims := &GrantClaims{}
	_, err = jwt.ParseWithClaims(grant, claims, func(token *jwt.Token) (any, error) {
		return vr.Key, nil
	}, options...)
	if err != nil {
		return
	}

	return claims.Level, nil
}
