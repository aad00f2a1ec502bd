package sqlite

import (
	"io"
	"log/slog"

	"github.com/garnizeh/jobtrail/internal/db"
	"github.com/garnizeh/jobtrail/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.SnapshotRepo = (*SQLiteRepo)(nil)

// New returns a repo over conn. The snapshot tables must already exist; run
// db.Migrate first.
func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}
