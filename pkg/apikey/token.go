package apikey

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	keyPrefix = "qg_"
	sigBytes  = 16
)

// claims is the signed payload of a key.
type claims struct {
	KeyID  uuid.UUID `json:"kid"`
	UserID uuid.UUID `json:"uid"`
}

// encode renders qg_<base64url(json)>.<base64url(truncated hmac-sha256)>.
func encode(c claims, secret []byte) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sign(data, secret)), nil
}

func decode(raw string, secret []byte) (claims, error) {
	var c claims

	body, ok := strings.CutPrefix(raw, keyPrefix)
	if !ok {
		return c, ErrMalformedKey
	}
	payload, signature, ok := strings.Cut(body, ".")
	if !ok {
		return c, ErrMalformedKey
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return c, ErrMalformedKey
	}
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return c, ErrMalformedKey
	}

	if subtle.ConstantTimeCompare(sig, sign(data, secret)) != 1 {
		return c, ErrBadSignature
	}
	if err := json.Unmarshal(data, &c); err != nil || c.KeyID == uuid.Nil || c.UserID == uuid.Nil {
		return claims{}, ErrMalformedKey
	}
	return c, nil
}

func sign(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)[:sigBytes]
}
