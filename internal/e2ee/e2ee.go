// Package e2ee is the client-side cryptographic capability: elliptic-curve
// key agreement on P-256 and AES-256-GCM with a random per-message nonce,
// with public keys exchanged as base64 SPKI strings. The server never
// imports this outside of tests; it exists so a test can play both
// browsers end to end. Private keys and derived secrets never go over the
// wire.
package e2ee

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

const nonceSize = 12

// KeyPair holds one participant's asymmetric key pair. The private key
// stays inside the process that generated it.
type KeyPair struct {
	priv *ecdh.PrivateKey
	Pub  *ecdh.PublicKey
}

// GenerateKeyPair creates a fresh P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv, Pub: priv.PublicKey()}, nil
}

// ExportPublicKey encodes a public key as base64 SPKI for publication.
func ExportPublicKey(pub *ecdh.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ImportPublicKey decodes a counterpart's base64 SPKI public key.
func ImportPublicKey(s string) (*ecdh.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	ec, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("not an EC public key")
	}
	pub, err := ec.ECDH()
	if err != nil {
		return nil, err
	}
	if pub.Curve() != ecdh.P256() {
		return nil, errors.New("unexpected curve")
	}
	return pub, nil
}

// DeriveSharedKey performs the key agreement and returns the symmetric
// key. Both sides compute the same value from their own private key and
// the other's public key.
func (kp *KeyPair) DeriveSharedKey(peer *ecdh.PublicKey) ([]byte, error) {
	return kp.priv.ECDH(peer)
}

// Encrypt seals plaintext under the shared key with a fresh random nonce.
// Returns base64 ciphertext and nonce.
func Encrypt(sharedKey []byte, plaintext string) (ciphertext, iv string, err error) {
	block, err := aes.NewCipher(sharedKey)
	if err != nil {
		return "", "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt opens a ciphertext produced by Encrypt. A failure here is a
// client-local condition: callers render an error marker, not a retry.
func Decrypt(sharedKey []byte, ciphertext, iv string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	block, err := aes.NewCipher(sharedKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("bad nonce size")
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
