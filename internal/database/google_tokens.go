package database

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"
)

// GoogleTokenStore keeps one account's OAuth token in the google_tokens table,
// encrypted with AES-256-GCM under a key derived from secret.
type GoogleTokenStore struct {
	db      *DB
	account string
	key     []byte
}

// NewGoogleTokenStore creates a token store for account
func NewGoogleTokenStore(db *DB, account, secret string) (*GoogleTokenStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("token encryption key is required")
	}
	hash := sha256.Sum256([]byte("meeting-agent-token-" + secret))
	return &GoogleTokenStore{db: db, account: account, key: hash[:]}, nil
}

// LoadToken returns nil when no token is stored
func (s *GoogleTokenStore) LoadToken(ctx context.Context) (*oauth2.Token, error) {
	var accessEnc, refreshEnc []byte
	var tokenType sql.NullString
	var expiry sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT access_token_encrypted, refresh_token_encrypted, token_type, expiry
		FROM google_tokens WHERE account = ?
	`, s.account).Scan(&accessEnc, &refreshEnc, &tokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get google token: %w", err)
	}

	accessToken, err := s.decrypt(accessEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.decrypt(refreshEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType.String,
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return token, nil
}

// SaveToken upserts the token. An empty refresh token keeps the stored one,
// since Google only returns it on first consent.
func (s *GoogleTokenStore) SaveToken(ctx context.Context, token *oauth2.Token) error {
	refresh := token.RefreshToken
	if refresh == "" {
		if existing, err := s.LoadToken(ctx); err == nil && existing != nil {
			refresh = existing.RefreshToken
		}
	}

	accessEnc, err := s.encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc, err := s.encrypt(refresh)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO google_tokens (account, access_token_encrypted, refresh_token_encrypted, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(account) DO UPDATE SET
			access_token_encrypted = excluded.access_token_encrypted,
			refresh_token_encrypted = excluded.refresh_token_encrypted,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP
	`, s.account, accessEnc, refreshEnc, token.TokenType, expiry)
	if err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token
func (s *GoogleTokenStore) DeleteToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM google_tokens WHERE account = ?`, s.account); err != nil {
		return fmt.Errorf("failed to delete google token: %w", err)
	}
	return nil
}

func (s *GoogleTokenStore) encrypt(plaintext string) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *GoogleTokenStore) decrypt(ciphertext []byte) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (s *GoogleTokenStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
