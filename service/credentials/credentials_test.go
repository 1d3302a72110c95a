package credentials

import (
	"context"
	"testing"

	"shiny/service/storage"
	"shiny/service/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVAPIDGeneratedOnceAndReused(t *testing.T) {
	db, err := storage.OpenSQLite(storage.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db, "secret", util.DiscardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	first, err := s.VAPID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.PublicKey)
	assert.NotEmpty(t, first.PrivateKey)

	second, err := s.VAPID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChangedMasterPasswordClearsCredentials(t *testing.T) {
	db, err := storage.OpenSQLite(storage.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	s, err := NewStore(db, "old-key", util.DiscardLogger())
	require.NoError(t, err)
	original, err := s.VAPID(ctx)
	require.NoError(t, err)

	rotated, err := NewStore(db, "new-key", util.DiscardLogger())
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM credentials`))
	assert.Equal(t, 0, n)

	fresh, err := rotated.VAPID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, original.PrivateKey, fresh.PrivateKey)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	db, err := storage.OpenSQLite(storage.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db, "secret", util.DiscardLogger())
	require.NoError(t, err)

	sealed, err := s.encrypt([]byte("payload"))
	require.NoError(t, err)
	plain, err := s.decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plain))

	_, err = s.decrypt([]byte("x"))
	assert.Error(t, err)
}
