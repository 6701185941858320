package datasource

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kalshi authentication headers
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
)

// Signer signs Kalshi trade API requests with an Ed25519 key
type Signer struct {
	keyID string
	key   ed25519.PrivateKey
	now   func() time.Time
}

// NewSigner parses the private key and returns a signer for keyID.
// The key may be a PKCS#8 PEM block or the bare base64 body of one.
func NewSigner(keyID, privateKey string) (*Signer, error) {
	if keyID == "" || strings.TrimSpace(privateKey) == "" {
		return nil, ErrMissingCredentials
	}
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return &Signer{keyID: keyID, key: key, now: time.Now}, nil
}

// ParsePrivateKey decodes an Ed25519 private key from PEM, base64 PKCS#8 DER or a base64 seed
func ParsePrivateKey(privateKey string) (ed25519.PrivateKey, error) {
	trimmed := strings.TrimSpace(privateKey)

	var der []byte
	if block, _ := pem.Decode([]byte(trimmed)); block != nil {
		der = block.Bytes
	} else {
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(trimmed), ""))
		if err != nil {
			return nil, fmt.Errorf("private key is neither PEM nor base64: %w", err)
		}
		der = raw
	}

	if len(der) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(der), nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an Ed25519 key")
	}
	return key, nil
}

// KeyID returns the API key id sent with every request
func (s *Signer) KeyID() string {
	return s.keyID
}

// Signature returns the base64 signature of timestamp + METHOD + path, ignoring any query string
func (s *Signer) Signature(timestamp, method, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	payload := timestamp + strings.ToUpper(method) + path
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.key, []byte(payload)))
}

// Sign sets the Kalshi authentication headers on req. The timestamp is in unix seconds.
func (s *Signer) Sign(req *http.Request) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	req.Header.Set(HeaderAccessKey, s.keyID)
	req.Header.Set(HeaderAccessSignature, s.Signature(timestamp, req.Method, req.URL.Path))
	req.Header.Set(HeaderAccessTimestamp, timestamp)
}
