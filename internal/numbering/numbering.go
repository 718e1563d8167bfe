// Package numbering issues human-readable document numbers and tracking
// codes. Counters live in the doc_sequences table and are incremented inside
// the caller's transaction, so a rolled-back order never burns a number that
// a later order silently skips past.
package numbering

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/gasindo/gastrack-backend/pkg/errors"
)

// Service hands out sequential document numbers scoped by prefix.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Next increments and returns the counter for prefix inside tx. The
// insert-then-update shape keeps the statement portable across Postgres and
// SQLite; the row-level lock taken by the UPDATE serializes concurrent
// callers on the same prefix.
func (s *Service) Next(tx *gorm.DB, prefix string) (int64, error) {
	if prefix == "" {
		return 0, apperrors.New(apperrors.CodeInternal, "sequence prefix is required")
	}

	if err := tx.Exec(
		"INSERT INTO doc_sequences (prefix, next_value) VALUES (?, 0) ON CONFLICT (prefix) DO NOTHING",
		prefix,
	).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "seeding doc sequence")
	}

	if err := tx.Exec(
		"UPDATE doc_sequences SET next_value = next_value + 1 WHERE prefix = ?",
		prefix,
	).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "incrementing doc sequence")
	}

	var value int64
	if err := tx.Raw(
		"SELECT next_value FROM doc_sequences WHERE prefix = ?",
		prefix,
	).Scan(&value).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "reading doc sequence")
	}
	return value, nil
}

// OrderNumber formats the next order number for the given day, e.g.
// O250901-00042.
func (s *Service) OrderNumber(tx *gorm.DB, at time.Time) (string, error) {
	prefix := "O" + at.Format("060102")
	seq, err := s.Next(tx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%05d", prefix, seq), nil
}

// DeliveryDocumentNumber formats the next shipment document number for the
// given month, e.g. DO/2025/09/0007.
func (s *Service) DeliveryDocumentNumber(tx *gorm.DB, at time.Time) (string, error) {
	prefix := fmt.Sprintf("DO/%04d/%02d", at.Year(), int(at.Month()))
	seq, err := s.Next(tx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%04d", prefix, seq), nil
}

// TrackingCode returns a short random code customers can quote over the
// phone: ten uppercase hex characters.
func (s *Service) TrackingCode() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:5]))
}
