package indexer

import (
	"time"

	"gorm.io/gorm"
)

// Block is one committed transaction. Heights are unique and dense.
type Block struct {
	Height    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Hash      string `gorm:"uniqueIndex;size:66"`
	StateRoot string `gorm:"size:66"`
	TxHash    string `gorm:"index;size:66"`
	TxType    string `gorm:"index;size:64"`
	Sender    string `gorm:"index;size:64"`
	Timestamp int64
	CreatedAt time.Time
}

// Event is one registry event. Sequence orders events inside a block.
type Event struct {
	ID         uint   `gorm:"primaryKey"`
	Height     uint64 `gorm:"index:idx_event_order,priority:1"`
	Sequence   int    `gorm:"index:idx_event_order,priority:2"`
	Type       string `gorm:"index;size:64"`
	Name       string `gorm:"index;size:255"`
	TLD        string `gorm:"size:64"`
	Attributes string `gorm:"type:text"`
	Timestamp  int64
}

// AutoMigrate creates or updates the index schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Block{}, &Event{})
}
