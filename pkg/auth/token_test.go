package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (privatePEM, publicPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})
	return privatePEM, publicPEM
}

func TestSigner_RoundTrip(t *testing.T) {
	privatePEM, publicPEM := generateKeyPair(t)
	signer, err := NewSigner(privatePEM, publicPEM, "identity-service")
	require.NoError(t, err)

	userID := uuid.New()
	token, err := signer.GenerateToken(userID, "freelancer", 15*time.Minute)
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "freelancer", claims.Role)
	assert.Equal(t, "identity-service", claims.Issuer)
}

func TestSigner_ValidateOnly(t *testing.T) {
	privatePEM, publicPEM := generateKeyPair(t)
	issuing, err := NewSigner(privatePEM, publicPEM, "identity-service")
	require.NoError(t, err)

	validating, err := NewSignerFromPublicKey(publicPEM, "identity-service")
	require.NoError(t, err)

	token, err := issuing.GenerateToken(uuid.New(), "client", time.Minute)
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)
	assert.NoError(t, err)

	_, err = validating.GenerateToken(uuid.New(), "client", time.Minute)
	assert.Error(t, err)
}

func TestSigner_Rejections(t *testing.T) {
	privatePEM, publicPEM := generateKeyPair(t)
	signer, err := NewSigner(privatePEM, publicPEM, "identity-service")
	require.NoError(t, err)

	t.Run("expired token", func(t *testing.T) {
		token, err := signer.GenerateToken(uuid.New(), "freelancer", -time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		otherPrivate, otherPublic := generateKeyPair(t)
		other, err := NewSigner(otherPrivate, otherPublic, "someone-else")
		require.NoError(t, err)

		token, err := other.GenerateToken(uuid.New(), "freelancer", time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("tampered token", func(t *testing.T) {
		token, err := signer.GenerateToken(uuid.New(), "freelancer", time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token + "x")
		assert.Error(t, err)
	})
}
