// Package datastore persists the last observed inventory between runs.
package datastore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/rs/zerolog"
)

// SnapshotStore keeps the inventory as a JSON file keyed by unit id and writes a
// text report next to it for operators. The report is never read back for state.
type SnapshotStore struct {
	snapshotPath string
	reportPath   string
	reporter     *ReportRenderer
	logger       zerolog.Logger
}

// NewSnapshotStore creates a store for cfg. The report path defaults to the
// snapshot path with .json replaced by .txt.
func NewSnapshotStore(cfg config.StorageConfig, logger zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{
		snapshotPath: cfg.SnapshotFile,
		reportPath:   ReportPathFor(cfg),
		reporter:     NewReportRenderer(time.Now),
		logger:       logger.With().Str("component", "SnapshotStore").Logger(),
	}
}

// ReportPathFor derives the text report location.
func ReportPathFor(cfg config.StorageConfig) string {
	if cfg.ReportFile != "" {
		return cfg.ReportFile
	}
	if strings.HasSuffix(cfg.SnapshotFile, ".json") {
		return strings.TrimSuffix(cfg.SnapshotFile, ".json") + ".txt"
	}
	return cfg.SnapshotFile + ".txt"
}

// SnapshotPath returns the JSON snapshot location.
func (s *SnapshotStore) SnapshotPath() string {
	return s.snapshotPath
}

// ReportPath returns the text report location.
func (s *SnapshotStore) ReportPath() string {
	return s.reportPath
}

// Load returns the stored inventory. Missing, unreadable or corrupt state yields an
// empty inventory; the last two are logged as warnings.
func (s *SnapshotStore) Load() models.Inventory {
	inv, err := s.Read()
	if err != nil {
		if errors.Is(err, errorwrapper.ErrNotFound) {
			s.logger.Debug().Str("path", s.snapshotPath).Msg("No previous snapshot found")
		} else {
			s.logger.Warn().Err(err).Str("path", s.snapshotPath).Msg("Could not load previous snapshot, starting empty")
		}
		return models.Inventory{}
	}
	s.logger.Info().Str("path", s.snapshotPath).Int("units", inv.Len()).Msg("Loaded previous snapshot")
	return inv
}

// Read decodes the snapshot, reporting why it could not.
func (s *SnapshotStore) Read() (models.Inventory, error) {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errorwrapper.WrapError(errorwrapper.ErrNotFound, "snapshot "+s.snapshotPath)
		}
		return nil, errorwrapper.WrapErrorf(err, "failed to read snapshot '%s'", s.snapshotPath)
	}

	var raw map[string]models.UnitRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errorwrapper.WrapErrorf(errors.Join(ErrSnapshotCorrupt, err), "failed to decode snapshot '%s'", s.snapshotPath)
	}

	inv := make(models.Inventory, len(raw))
	for key, record := range raw {
		if record.ID == "" {
			record.ID = key
		}
		record = record.Normalized()
		if record.ID == "" {
			s.logger.Warn().Str("key", key).Msg("Skipping snapshot record without id")
			continue
		}
		inv[record.ID] = record
	}
	return inv, nil
}

// Save persists inv and refreshes the text report. Failures are logged, never returned.
func (s *SnapshotStore) Save(inv models.Inventory) {
	if err := s.Write(inv); err != nil {
		s.logger.Error().Err(err).Str("path", s.snapshotPath).Msg("Failed to save snapshot")
	}
	if err := s.writeReport(inv); err != nil {
		s.logger.Warn().Err(err).Str("path", s.reportPath).Msg("Failed to write text report")
	}
}

// Write encodes inv and replaces the snapshot file through a temp file rename.
func (s *SnapshotStore) Write(inv models.Inventory) error {
	if inv == nil {
		inv = models.Inventory{}
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return errorwrapper.WrapError(err, "failed to encode snapshot")
	}
	if err := writeFileAtomic(s.snapshotPath, data, 0644); err != nil {
		return err
	}
	s.logger.Debug().Str("path", s.snapshotPath).Int("units", inv.Len()).Msg("Snapshot saved")
	return nil
}

func (s *SnapshotStore) writeReport(inv models.Inventory) error {
	previous, err := os.ReadFile(s.reportPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug().Err(err).Str("path", s.reportPath).Msg("Previous text report unreadable")
	}

	report := s.reporter.Render(inv)
	if err := writeFileAtomic(s.reportPath, []byte(report), 0644); err != nil {
		return err
	}

	if len(previous) > 0 {
		summary := SummarizeReportChange(string(previous), report)
		if summary.Changed() {
			s.logger.Debug().
				Int("lines_added", summary.LinesAdded).
				Int("lines_removed", summary.LinesRemoved).
				Str("path", s.reportPath).
				Msg("Text report changed")
		}
	}
	return nil
}
