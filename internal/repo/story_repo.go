package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bizchat/server/internal/model"
)

type storyRepo struct {
	db *sql.DB
}

// NewStoryRepo creates a Postgres-backed StoryRepo
func NewStoryRepo(db *sql.DB) StoryRepo {
	return &storyRepo{db: db}
}

// storySelect aggregates viewers from story_views so a story and its viewer set load in one row.
const storySelect = `
	SELECT s.id, s.user_id, s.location, s.content, s.media_url, s.created_at, s.expires_at,
	       COALESCE(array_agg(v.viewer_id ORDER BY v.viewed_at) FILTER (WHERE v.viewer_id IS NOT NULL), '{}')::text[]
	FROM stories s
	LEFT JOIN story_views v ON v.story_id = s.id
`

// Create inserts a story
func (r *storyRepo) Create(ctx context.Context, story model.Story) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stories (id, user_id, location, content, media_url, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, story.ID, story.UserID, story.Location, story.Content, story.MediaURL, story.CreatedAt, story.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

// ListActiveByLocation returns stories for location that expire after now, newest first
func (r *storyRepo) ListActiveByLocation(ctx context.Context, location string, now time.Time) ([]model.Story, error) {
	rows, err := r.db.QueryContext(ctx, storySelect+`
		WHERE s.location = $1 AND s.expires_at > $2
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id
	`, location, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return scanStories(rows)
}

// AddView records a viewer once per story (ON CONFLICT DO NOTHING) and returns the updated story
func (r *storyRepo) AddView(ctx context.Context, storyID, viewerID uuid.UUID, now time.Time) (model.Story, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Story{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the story row so a concurrent expiry check and insert see the same state.
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT expires_at FROM stories WHERE id = $1 FOR UPDATE`, storyID).Scan(&expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Story{}, ErrNotFound
		}
		return model.Story{}, fmt.Errorf("lock story: %w", err)
	}
	if !now.Before(expiresAt) {
		return model.Story{}, ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO story_views (story_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (story_id, viewer_id) DO NOTHING
	`, storyID, viewerID, now)
	if err != nil {
		return model.Story{}, fmt.Errorf("insert view: %w", err)
	}

	rows, err := tx.QueryContext(ctx, storySelect+`WHERE s.id = $1 GROUP BY s.id`, storyID)
	if err != nil {
		return model.Story{}, fmt.Errorf("reload story: %w", err)
	}
	stories, err := scanStories(rows)
	if err != nil {
		return model.Story{}, err
	}
	if len(stories) == 0 {
		return model.Story{}, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return model.Story{}, fmt.Errorf("commit: %w", err)
	}
	return stories[0], nil
}

func scanStories(rows *sql.Rows) ([]model.Story, error) {
	defer rows.Close()

	stories := make([]model.Story, 0)
	for rows.Next() {
		var story model.Story
		var media sql.NullString
		var viewers pq.StringArray
		if err := rows.Scan(
			&story.ID,
			&story.UserID,
			&story.Location,
			&story.Content,
			&media,
			&story.CreatedAt,
			&story.ExpiresAt,
			&viewers,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		if media.Valid {
			story.MediaURL = &media.String
		}
		ids, err := parseUUIDs(viewers)
		if err != nil {
			return nil, fmt.Errorf("failed to parse viewers: %w", err)
		}
		story.Viewers = ids
		story.ViewCount = len(ids)
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}
	return stories, nil
}
