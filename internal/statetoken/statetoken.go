// Package statetoken carries anti-forgery data through the identity
// provider redirect in the OAuth "state" parameter.
//
// The token is not encrypted or signed. It is tamper-evident only because the
// embedded secret is checked against a fingerprint of the caller's own session.
package statetoken

import (
	"encoding/base64"
	"encoding/json"

	"github.com/spotmap/spot-api/internal/util"
)

type Token struct {
	Secret string `json:"secret"`
	Origin string `json:"origin,omitempty"`
}

// Fingerprint derives the state secret for a session id.
func Fingerprint(sessionID string) string {
	return util.HashToken(sessionID)
}

// New builds the token a session uses to start a sign-in round trip.
func New(sessionID, origin string) Token {
	return Token{
		Secret: Fingerprint(sessionID),
		Origin: origin,
	}
}

// Encode serializes t into a URL-safe string.
func Encode(t Token) string {
	data, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode reverses Encode. Any malformed input yields ok == false.
func Decode(s string) (Token, bool) {
	if s == "" {
		return Token{}, false
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Token{}, false
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, false
	}
	if t.Secret == "" {
		return Token{}, false
	}
	return t, true
}

// Verify reports whether t was minted by the session with the given id.
func (t Token) Verify(sessionID string) bool {
	return util.ConstantTimeEqual(t.Secret, Fingerprint(sessionID))
}
