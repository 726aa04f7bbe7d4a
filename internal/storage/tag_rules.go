package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ListTagRules returns every rule in ascending identifier order with its tags.
func (s *SQLiteStorage) ListTagRules(ctx context.Context) ([]model.TagRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.matching_pattern, r.is_regex,
			(SELECT GROUP_CONCAT(rt.tag_id) FROM tag_rule_tag rt WHERE rt.tag_rule_id = r.id) AS tag_ids
		FROM tag_rules r
		ORDER BY r.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.TagRule
	for rows.Next() {
		var rule model.TagRule
		var isRegex bool
		var tagIDs sql.NullString

		if err := rows.Scan(&rule.ID, &rule.MatchingPattern, &isRegex, &tagIDs); err != nil {
			return nil, fmt.Errorf("failed to scan tag rule: %w", err)
		}

		if isRegex {
			rule.Kind = model.PatternRegex
		}
		rule.TagIDs = parseIDList(tagIDs.String)
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rules: %w", err)
	}

	return rules, nil
}

// SaveTagRule creates a rule when its ID is zero, otherwise replaces the stored
// rule's pattern, kind and tag associations. The pattern is stored exactly as
// given. The rule is updated in place with its identifier and normalized tag list.
func (s *SQLiteStorage) SaveTagRule(ctx context.Context, rule *model.TagRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTagRule(rule); err != nil {
		return err
	}

	tagIDs := uniqueSorted(rule.TagIDs)
	pattern := rule.MatchingPattern

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureTagsExist(ctx, tx, tagIDs); err != nil {
			return err
		}

		if rule.ID == 0 {
			result, err := tx.ExecContext(ctx,
				"INSERT INTO tag_rules (matching_pattern, is_regex) VALUES (?, ?)",
				pattern, rule.IsRegex())
			if err != nil {
				return fmt.Errorf("failed to create tag rule: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get tag rule ID: %w", err)
			}
			rule.ID = id
		} else {
			result, err := tx.ExecContext(ctx,
				"UPDATE tag_rules SET matching_pattern = ?, is_regex = ? WHERE id = ?",
				pattern, rule.IsRegex(), rule.ID)
			if err != nil {
				return fmt.Errorf("failed to update tag rule: %w", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("tag rule %d: %w", rule.ID, common.ErrNotFound)
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM tag_rule_tag WHERE tag_rule_id = ?", rule.ID); err != nil {
				return fmt.Errorf("failed to clear tag rule associations: %w", err)
			}
		}

		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tag_rule_tag (tag_rule_id, tag_id) VALUES (?, ?)",
				rule.ID, tagID); err != nil {
				return fmt.Errorf("failed to associate tag %d: %w", tagID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rule.TagIDs = tagIDs
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
