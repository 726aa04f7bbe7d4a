package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// appConfig is resolved by initConfig before any command runs.
var appConfig *config.Config

func currentConfig() *config.Config {
	if appConfig == nil {
		return &config.Config{DatabasePath: config.ExpandPath(config.DefaultDatabasePath)}
	}
	return appConfig
}

// openLedger opens the configured database with migrations applied.
func openLedger(ctx context.Context) (*ledger.Ledger, error) {
	return ledger.Open(ctx, currentConfig().DatabasePath)
}

// tagNameMap indexes tag names by identifier for rendering.
func tagNameMap(ctx context.Context, l *ledger.Ledger) (map[int64]string, error) {
	tags, err := l.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return indexTags(tags), nil
}

func indexTags(tags []model.Tag) map[int64]string {
	names := make(map[int64]string, len(tags))
	for _, tag := range tags {
		names[tag.ID] = tag.Name
	}
	return names
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value. An empty value yields nil.
func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q (format: 2006-01-02)", name, raw)
	}
	return &date, nil
}
