package models

import "github.com/google/uuid"

// OrderSequence is the per-tenant, per-day counter behind order numbers.
type OrderSequence struct {
	TenantID uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	SeqDate  string    `gorm:"column:seq_date;type:varchar(8);primaryKey"`
	LastSeq  int64     `gorm:"column:last_seq;not null"`
}
