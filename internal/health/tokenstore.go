package health

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrTokenNotEncrypted is returned when the token file carries a
// plaintext token or no ciphertext at all.
var ErrTokenNotEncrypted = errors.New("token file is not encrypted")

// DefaultTokenPath returns the default location of the encrypted token
// file, shared by the probe and the credential loader.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".glassfeed", "tokens.json")
	}
	return filepath.Join(home, ".glassfeed", "tokens.json")
}

// deriveKey stretches a passphrase into an AES-256 key.
func deriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// SaveEncryptedToken seals the provider access token with AES-256-GCM
// and writes it to path in the format TokenProbe validates.
func SaveEncryptedToken(path, passphrase, token string, now time.Time) error {
	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("creating gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, []byte(token), nil)

	data, err := json.Marshal(tokenFile{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		SavedAt:    now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling token file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// ReadAccessToken loads and decrypts the provider access token from the
// same file TokenProbe checks, so the credential sync authenticates with
// and the oauth health signal share one source.
func ReadAccessToken(path, passphrase string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("token file is corrupt: %w", err)
	}
	if tf.AccessToken != "" || tf.Ciphertext == "" {
		return "", ErrTokenNotEncrypted
	}

	sealed, err := base64.StdEncoding.DecodeString(tf.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(tf.Nonce)
	if err != nil {
		return "", fmt.Errorf("decoding nonce: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating gcm: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("token file nonce has wrong size")
	}

	token, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	return string(token), nil
}
