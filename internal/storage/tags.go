package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ListTags returns all tags ordered by name.
func (s *SQLiteStorage) ListTags(ctx context.Context) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// SaveTag creates a tag when its ID is zero, otherwise renames it.
// The assigned identifier is written back to tag.ID.
func (s *SQLiteStorage) SaveTag(ctx context.Context, tag *model.Tag) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTag(tag); err != nil {
		return err
	}

	name := strings.TrimSpace(tag.Name)

	if tag.ID == 0 {
		result, err := s.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tag %q: %w", name, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to create tag: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get tag ID: %w", err)
		}
		tag.ID = id
		tag.Name = name
		return nil
	}

	result, err := s.db.ExecContext(ctx, "UPDATE tags SET name = ? WHERE id = ?", name, tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tag %q: %w", name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tag %d: %w", tag.ID, common.ErrNotFound)
	}

	tag.Name = name
	return nil
}

// ensureTagsExist fails with ErrInvalidTagRule naming the first unknown tag.
func ensureTagsExist(ctx context.Context, q queryable, tagIDs []int64) error {
	for _, id := range tagIDs {
		var exists int
		err := q.QueryRowContext(ctx, "SELECT 1 FROM tags WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: tag %d does not exist", ErrInvalidTagRule, id)
		}
		if err != nil {
			return fmt.Errorf("failed to verify tag %d: %w", id, err)
		}
	}
	return nil
}
