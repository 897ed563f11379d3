package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const nextSequenceSQL = `
INSERT INTO order_sequences (tenant_id, seq_date, last_seq) VALUES (?, ?, 1)
ON CONFLICT (tenant_id, seq_date)
DO UPDATE SET last_seq = order_sequences.last_seq + 1
RETURNING last_seq`

// Sequencer hands out ORD-YYYYMMDD-NNNNN numbers per tenant per day. The
// upsert row lock serializes concurrent callers and a rollback returns the number.
type Sequencer struct {
	loc *time.Location
}

func NewSequencer(loc *time.Location) *Sequencer {
	if loc == nil {
		loc = time.UTC
	}
	return &Sequencer{loc: loc}
}

// Next must run on the transaction that inserts the order.
func (s *Sequencer) Next(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, now time.Time) (string, error) {
	if tx == nil {
		return "", errors.New("transaction required")
	}
	day := now.In(s.loc).Format("20060102")

	var seq int64
	if err := tx.WithContext(ctx).Raw(nextSequenceSQL, tenantID, day).Scan(&seq).Error; err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	if seq <= 0 {
		return "", fmt.Errorf("next order sequence: no value returned for %s", day)
	}
	return FormatOrderNo(day, seq), nil
}

func FormatOrderNo(day string, seq int64) string {
	return fmt.Sprintf("ORD-%s-%05d", day, seq)
}
