package indexer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"namechain/core"
	"namechain/crypto"
)

var ErrUnsupportedDSN = errors.New("indexer: dsn must start with sqlite:// or postgres://")

// Entry is the public view of an indexed event.
type Entry struct {
	Height     uint64            `json:"height"`
	Sequence   int               `json:"sequence"`
	Type       string            `json:"type"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"`
}

// Indexer persists committed registry events for historical queries.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the database named by dsn and migrates the schema.
// "sqlite://<path>" selects the pure-Go SQLite driver, "postgres://..." and
// "postgresql://..." select PostgreSQL.
func Open(dsn string, logger *slog.Logger) (*Indexer, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing connection.
func New(db *gorm.DB, logger *slog.Logger) (*Indexer, error) {
	if db == nil {
		return nil, errors.New("indexer: nil database")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return &Indexer{db: db, logger: logger.With("component", "indexer")}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	trimmed := strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(trimmed, "sqlite://"):
		path := strings.TrimPrefix(trimmed, "sqlite://")
		if path == "" {
			return nil, ErrUnsupportedDSN
		}
		return sqlite.Open(path), nil
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return postgres.Open(trimmed), nil
	default:
		return nil, ErrUnsupportedDSN
	}
}

// HandleBlock implements core.BlockSink. A block is stored with all of its
// events or not at all; re-delivering a stored height is a no-op.
func (i *Indexer) HandleBlock(ctx context.Context, block *core.CommittedBlock) error {
	if block == nil || block.Header == nil {
		return nil
	}
	hash, err := block.Header.Hash()
	if err != nil {
		return err
	}
	height := block.Header.Height
	timestamp := int64(block.Header.Timestamp)
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Block{}).Where("height = ?", height).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		row := Block{
			Height:    height,
			Hash:      "0x" + hex.EncodeToString(hash),
			StateRoot: "0x" + hex.EncodeToString(block.Header.StateRoot),
			TxHash:    "0x" + hex.EncodeToString(block.TxHash),
			TxType:    block.TxType.String(),
			Sender:    crypto.FromRaw(block.Sender).String(),
			Timestamp: timestamp,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(block.Events) == 0 {
			return nil
		}
		rows := make([]Event, 0, len(block.Events))
		for seq, evt := range block.Events {
			attrs, err := json.Marshal(evt.Attributes)
			if err != nil {
				return err
			}
			rows = append(rows, Event{
				Height:     height,
				Sequence:   seq,
				Type:       evt.Type,
				Name:       evt.Attributes["name"],
				TLD:        evt.Attributes["tld"],
				Attributes: string(attrs),
				Timestamp:  timestamp,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		i.logger.Debug("indexed block", slog.Uint64("height", height), slog.Int("events", len(rows)))
		return nil
	})
}

// History returns the events recorded for name in commit order. A positive
// limit keeps only the most recent entries.
func (i *Indexer) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	query := i.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).
		Order("height DESC").Order("sequence DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Height != rows[b].Height {
			return rows[a].Height < rows[b].Height
		}
		return rows[a].Sequence < rows[b].Sequence
	})
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			Height:    row.Height,
			Sequence:  row.Sequence,
			Type:      row.Type,
			Name:      row.Name,
			Timestamp: row.Timestamp,
		}
		if err := json.Unmarshal([]byte(row.Attributes), &entry.Attributes); err != nil {
			return nil, fmt.Errorf("indexer: decode attributes at height %d: %w", row.Height, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// LatestHeight returns the highest indexed block, zero when empty.
func (i *Indexer) LatestHeight(ctx context.Context) (uint64, error) {
	var block Block
	err := i.db.WithContext(ctx).Order("height DESC").Limit(1).Find(&block).Error
	if err != nil {
		return 0, err
	}
	return block.Height, nil
}

// Close releases the underlying connection pool.
func (i *Indexer) Close() error {
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
