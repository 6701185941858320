package datasource

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPEM(t *testing.T) (ed25519.PublicKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	return pub, string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func TestParsePrivateKeyFormats(t *testing.T) {
	pub, pemKey := generateKeyPEM(t)

	key, err := ParsePrivateKey(pemKey)
	require.NoError(t, err)
	assert.Equal(t, pub, key.Public())

	block, _ := pem.Decode([]byte(pemKey))
	key, err = ParsePrivateKey(base64.StdEncoding.EncodeToString(block.Bytes))
	require.NoError(t, err)
	assert.Equal(t, pub, key.Public())

	_, err = ParsePrivateKey("not a key!")
	assert.Error(t, err)
}

func TestNewSignerMissingCredentials(t *testing.T) {
	_, pemKey := generateKeyPEM(t)

	_, err := NewSigner("", pemKey)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewSigner("key-id", "  ")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSignerSignsPathWithoutQuery(t *testing.T) {
	pub, pemKey := generateKeyPEM(t)
	signer, err := NewSigner("key-id", pemKey)
	require.NoError(t, err)
	signer.now = func() time.Time { return time.Unix(1700000000, 0) }

	req, err := http.NewRequest(http.MethodGet, "https://example.com/trade-api/v2/events?limit=200&status=open", nil)
	require.NoError(t, err)
	signer.Sign(req)

	assert.Equal(t, "key-id", req.Header.Get(HeaderAccessKey))
	assert.Equal(t, "1700000000", req.Header.Get(HeaderAccessTimestamp))

	sig, err := base64.StdEncoding.DecodeString(req.Header.Get(HeaderAccessSignature))
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("1700000000GET/trade-api/v2/events"), sig))

	assert.Equal(t, req.Header.Get(HeaderAccessSignature), signer.Signature("1700000000", "get", "/trade-api/v2/events?x=1"))
}
