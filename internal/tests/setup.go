package tests

import (
	"context"
	"database/sql"
	"fmt"
)

// directoryTables lists every table owned by the Postgres directory.
const directoryTables = "story_views, stories, messages, chats, users"

// TruncateDirectoryTables empties the Postgres directory for a clean test state.
func TruncateDirectoryTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE "+directoryTables+" RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate directory tables: %w", err)
	}
	return nil
}
