package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted for HS256.
const MinSecretLength = 32

// Keys holds the process-wide signing material.
// It is built once at startup and only read afterwards, so it is safe to share
// between requests without locking.
type Keys struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewHMACKeys builds HS256 keys from a shared secret
func NewHMACKeys(secret []byte) (*Keys, error) {
	if len(secret) == 0 {
		return nil, ErrNoSigningKey
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &Keys{
		method:    jwt.SigningMethodHS256,
		signKey:   key,
		verifyKey: key,
	}, nil
}

// NewRSAKeys builds RS256 keys from PEM-encoded key material.
// Literal "\n" sequences are accepted so keys can live in a single env var.
func NewRSAKeys(privatePEM, publicPEM string) (*Keys, error) {
	if privatePEM == "" || publicPEM == "" {
		return nil, ErrNoSigningKey
	}

	privatePEM = strings.ReplaceAll(privatePEM, "\\n", "\n")
	publicPEM = strings.ReplaceAll(publicPEM, "\\n", "\n")

	privBlock, _ := pem.Decode([]byte(privatePEM))
	if privBlock == nil {
		return nil, errors.New("failed to decode private key PEM - ensure it has BEGIN/END markers")
	}

	priv, err := parseRSAPrivateKey(privBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	pubBlock, _ := pem.Decode([]byte(publicPEM))
	if pubBlock == nil {
		return nil, errors.New("failed to decode public key PEM - ensure it has BEGIN/END markers")
	}

	parsed, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}

	if !priv.PublicKey.Equal(pub) {
		return nil, errors.New("public key does not match private key")
	}

	return &Keys{
		method:    jwt.SigningMethodRS256,
		signKey:   priv,
		verifyKey: pub,
	}, nil
}

// Algorithm returns the JWS alg header value these keys produce
func (k *Keys) Algorithm() string {
	return k.method.Alg()
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an RSA key")
	}
	return key, nil
}
