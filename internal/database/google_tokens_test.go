package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGoogleTokenStore(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	store, err := NewGoogleTokenStore(db, "calendar", "test-key")
	require.NoError(t, err)

	t.Run("requires a key", func(t *testing.T) {
		_, err := NewGoogleTokenStore(db, "calendar", "")
		assert.Error(t, err)
	})

	t.Run("get non-existent token returns nil", func(t *testing.T) {
		token, err := store.LoadToken(ctx)
		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("save and retrieve token", func(t *testing.T) {
		saved := &oauth2.Token{
			AccessToken:  "access-token-12345",
			RefreshToken: "refresh-token-67890",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}
		require.NoError(t, store.SaveToken(ctx, saved))

		token, err := store.LoadToken(ctx)
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, saved.AccessToken, token.AccessToken)
		assert.Equal(t, saved.RefreshToken, token.RefreshToken)
		assert.Equal(t, saved.TokenType, token.TokenType)
		assert.True(t, saved.Expiry.Equal(token.Expiry))
	})

	t.Run("refresh without refresh token keeps the old one", func(t *testing.T) {
		require.NoError(t, store.SaveToken(ctx, &oauth2.Token{AccessToken: "new-access", TokenType: "Bearer"}))

		token, err := store.LoadToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "new-access", token.AccessToken)
		assert.Equal(t, "refresh-token-67890", token.RefreshToken)
	})

	t.Run("tokens are stored encrypted", func(t *testing.T) {
		var raw []byte
		require.NoError(t, db.QueryRow(`SELECT access_token_encrypted FROM google_tokens WHERE account = ?`, "calendar").Scan(&raw))
		assert.NotContains(t, string(raw), "new-access")
	})

	t.Run("wrong key cannot decrypt", func(t *testing.T) {
		other, err := NewGoogleTokenStore(db, "calendar", "another-key")
		require.NoError(t, err)

		_, err = other.LoadToken(ctx)
		assert.ErrorContains(t, err, "failed to decrypt")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteToken(ctx))

		token, err := store.LoadToken(ctx)
		require.NoError(t, err)
		assert.Nil(t, token)
	})
}
