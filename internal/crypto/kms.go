package crypto

import (
	"context"
	"encoding/base64"

	gcpkms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
)

// TokenCipher encrypts bank access tokens before they are written to
// Firestore and decrypts them on read. Tokens never land in storage as
// plaintext.
type TokenCipher struct {
	client  *gcpkms.KeyManagementClient
	keyName string
}

func NewTokenCipher(client *gcpkms.KeyManagementClient, keyName string) *TokenCipher {
	return &TokenCipher{client: client, keyName: keyName}
}

// Encrypt returns the base64 KMS ciphertext of the token.
func (c *TokenCipher) Encrypt(ctx context.Context, token string) (string, error) {
	resp, err := c.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      c.keyName,
		Plaintext: []byte(token),
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

// Decrypt reverses Encrypt.
func (c *TokenCipher) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       c.keyName,
		Ciphertext: raw,
	})
	if err != nil {
		return "", err
	}
	return string(resp.Plaintext), nil
}
