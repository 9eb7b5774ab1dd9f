package store

import (
	"database/sql"
	"time"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

// =====================================================
// Credential row
// =====================================================

// SaveCredential stores the signed-in user's token pair, replacing any
// previous row. The engine is single-account; two rows never coexist.
func (s *Store) SaveCredential(c *models.Credential) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "beginning credential save", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM credentials`); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "clearing old credential", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO credentials (username, token, token_secret_sealed, created_at)
		VALUES (?, ?, ?, ?)`,
		c.Username, c.Token, c.TokenSecretSealed, c.CreatedAt); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "saving credential", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "committing credential save", err)
	}
	return nil
}

// Credential returns the stored token pair, or NOT_FOUND when the user
// has never signed in on this device.
func (s *Store) Credential() (*models.Credential, error) {
	var c models.Credential
	err := s.db.QueryRow(`
		SELECT username, token, token_secret_sealed, created_at
		FROM credentials LIMIT 1`).
		Scan(&c.Username, &c.Token, &c.TokenSecretSealed, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, "no stored credential")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "reading credential", err)
	}
	return &c, nil
}

// DeleteCredential removes the stored token pair.
func (s *Store) DeleteCredential() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "deleting credential", err)
	}
	return nil
}
