package store

import (
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"

	"qroute/internal/app/model"
	"qroute/internal/app/normalize"
	"qroute/internal/app/safety"
)

// SeedEntry is one candidate route from a seed source: an id plus the same
// untrusted payload shape the API accepts.
type SeedEntry struct {
	ID string `json:"id"`
	model.RoutePayload
}

// SeedSources names where startup seed data may come from.
type SeedSources struct {
	// FilePath points at a JSON file holding an array of SeedEntry.
	FilePath string
	// InlineJSON is the same array passed directly through configuration.
	InlineJSON string
}

// Seed populates the store from the given sources, passing every candidate
// through the normalizer and skipping entries that fail validation; a bad
// seed entry must never prevent startup. Seeding runs at most once per store
// regardless of how many times it is invoked. It returns the number of routes
// inserted by this call.
func (f *Fallback) Seed(sources SeedSources, policy safety.Policy, logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}

	added := 0
	f.seedOnce.Do(func() {
		if sources.FilePath != "" {
			raw, err := os.ReadFile(sources.FilePath)
			if err != nil {
				logger.Warn("seed file unreadable, skipping",
					zap.String("path", sources.FilePath), zap.Error(err))
			} else {
				added += f.seedFromJSON(raw, policy, logger, "file")
			}
		}
		if sources.InlineJSON != "" {
			added += f.seedFromJSON([]byte(sources.InlineJSON), policy, logger, "env")
		}
	})
	return added
}

func (f *Fallback) seedFromJSON(raw []byte, policy safety.Policy, logger *zap.Logger, origin string) int {
	var entries []SeedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("seed source is not valid JSON, skipping",
			zap.String("origin", origin), zap.Error(err))
		return 0
	}

	added := 0
	now := time.Now().UTC()
	for _, entry := range entries {
		if !model.ValidID(entry.ID) {
			logger.Debug("skipping seed entry with invalid id",
				zap.String("origin", origin), zap.String("id", entry.ID))
			continue
		}
		route, err := normalize.Route(entry.ID, entry.RoutePayload, nil, policy, now)
		if err != nil {
			logger.Debug("skipping seed entry that failed validation",
				zap.String("origin", origin), zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		f.Set(route)
		added++
	}
	return added
}
