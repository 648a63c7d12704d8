package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const signingKeyBits = 2048

// KeyManager owns the RSA key that signs principal tokens. The key is
// created on first run and reloaded from the same path afterwards.
type KeyManager struct {
	path string
	key  *rsa.PrivateKey
}

// NewKeyManager returns a KeyManager storing its PEM key at path.
func NewKeyManager(path string) *KeyManager {
	return &KeyManager{path: path}
}

// LoadOrCreate loads the key if the file exists, creating it otherwise.
func (m *KeyManager) LoadOrCreate() error {
	err := m.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return m.Create()
}

// Load reads an existing PKCS#1 PEM key.
func (m *KeyManager) Load() error {
	keyPEM, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read signing key: %w", err)
	}
	key, err := ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return err
	}
	m.key = key
	return nil
}

// Create generates a new RSA key, writes it with 0600 permissions and
// activates it.
func (m *KeyManager) Create() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, signingKeyBits)
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(m.path, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write signing key: %w", err)
	}

	m.key = key
	return nil
}

// Key returns the active private key, or nil before Load/Create.
func (m *KeyManager) Key() *rsa.PrivateKey { return m.key }

// Path returns the key file location.
func (m *KeyManager) Path() string { return m.path }

// ParsePrivateKeyPEM decodes a PKCS#1 or PKCS#8 RSA private key.
func ParsePrivateKeyPEM(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("decode signing key PEM: no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key is not RSA")
	}
	return key, nil
}
