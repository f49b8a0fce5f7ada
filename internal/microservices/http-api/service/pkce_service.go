package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// PKCE = Proof Key for Code Exchange
// PKCEService generates verifiers and their S256 challenges. The identity
// provider checks the pair during the code exchange.
type PKCEService interface {
	// gen a 32-byte random value and encode with URL-safe base64
	GenerateCodeVerifier() (string, error)
	// compute SHA256(verifier) and base64url-encode the result.
	GenerateCodeChallenge(verifier string) string
}

type pkceService struct{}

func NewPKCEService() PKCEService {
	return pkceService{}
}

func (pkceService) GenerateCodeVerifier() (string, error) {
	return randomToken(32)
}

func (pkceService) GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
