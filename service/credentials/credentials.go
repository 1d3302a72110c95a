package credentials

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"shiny/service/storage"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/scrypt"
)

type Kind string

const (
	KindVAPID Kind = "vapid"
)

var ErrNotConfigured = errors.New("credentials not configured")

type VAPIDKeys struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Store keeps secrets encrypted at rest with a key derived from the API key.
type Store struct {
	db            *sqlx.DB
	encryptionKey []byte
	logger        *slog.Logger
}

func NewStore(db *sqlx.DB, masterPassword string, logger *slog.Logger) (*Store, error) {
	key, err := deriveKey(masterPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	err = storage.CreateTables(db, `
		CREATE TABLE IF NOT EXISTS credentials (
			kind TEXT PRIMARY KEY,
			encrypted BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, err
	}

	store := &Store{
		db:            db,
		encryptionKey: key,
		logger:        logger,
	}

	if err := store.checkIntegrity(); err != nil {
		logger.Warn("Stored credentials unreadable (API_KEY likely changed), clearing them", "error", err)
		if _, clearErr := db.Exec(`DELETE FROM credentials`); clearErr != nil {
			return nil, fmt.Errorf("failed to clear corrupted credentials: %w", clearErr)
		}
	}

	return store, nil
}

func deriveKey(password string) ([]byte, error) {
	salt := []byte("shiny-credentials-salt-v1")
	return scrypt.Key([]byte(password), salt, 32768, 8, 1, 32)
}

func (s *Store) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := s.newGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := s.newGCM()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

// VAPID returns the service's Web Push key pair, generating and saving one
// on first use.
func (s *Store) VAPID(ctx context.Context) (*VAPIDKeys, error) {
	var keys VAPIDKeys
	err := s.load(ctx, KindVAPID, &keys)
	if err == nil {
		return &keys, nil
	}
	if !errors.Is(err, ErrNotConfigured) {
		return nil, err
	}

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	keys = VAPIDKeys{PublicKey: publicKey, PrivateKey: privateKey}

	if err := s.save(ctx, KindVAPID, &keys); err != nil {
		return nil, err
	}
	s.logger.Info("Generated VAPID key pair")
	return &keys, nil
}

func (s *Store) save(ctx context.Context, kind Kind, value any) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	encrypted, err := s.encrypt(jsonData)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (kind, encrypted, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind) DO UPDATE SET
			encrypted = excluded.encrypted,
			updated_at = CURRENT_TIMESTAMP
	`, string(kind), encrypted)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, kind Kind, dest any) error {
	var encrypted []byte
	err := s.db.GetContext(ctx, &encrypted, `SELECT encrypted FROM credentials WHERE kind = ?`, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", kind, ErrNotConfigured)
	}
	if err != nil {
		return err
	}
	decrypted, err := s.decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	if err := json.Unmarshal(decrypted, dest); err != nil {
		return fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return nil
}

func (s *Store) checkIntegrity() error {
	type row struct {
		Kind      string `db:"kind"`
		Encrypted []byte `db:"encrypted"`
	}
	var rows []row
	if err := s.db.Select(&rows, `SELECT kind, encrypted FROM credentials`); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := s.decrypt(r.Encrypted); err != nil {
			return fmt.Errorf("credentials corrupted for %s: %w", r.Kind, err)
		}
	}
	return nil
}
