package storage

import (
	"context"

	"github.com/mcoot/ghoulgame/internal/model"
)

// Storage persists the archive of finished games. Live sessions are held in memory
// by the lobby registry and never stored.
type Storage interface {
	SaveGameRecord(ctx context.Context, record *model.GameRecord) error
	GetGameRecord(ctx context.Context, id model.GameID) (*model.GameRecord, error)

	// ListGameRecords returns up to limit records, most recently ended first.
	// A limit of zero or less returns every record.
	ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error)

	Close() error
}
