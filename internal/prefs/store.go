package prefs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
)

// selectedLinesKey is the fixed storage key for the line selection. The
// payload is a JSON array of line-name strings; there is no schema
// versioning beyond that.
const selectedLinesKey = "selected_lines"

// Store persists the selected-lines preference. Callers never observe a
// storage error: Save swallows failures and Load degrades to an empty
// selection.
type Store struct {
	repo   Repository
	logger zerolog.Logger
}

// NewStore creates a new preference store.
func NewStore(repo Repository, logger zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger,
	}
}

// Save persists the selection under the fixed key. On any failure the error
// is logged and any partially-written value is cleared, so a later Load
// cannot observe a torn write.
func (s *Store) Save(ctx context.Context, lines []string) {
	if lines == nil {
		lines = []string{}
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode line selection, clearing stored preference")
		s.clear(ctx)
		return
	}

	if err := s.repo.Set(ctx, selectedLinesKey, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist line selection, clearing stored preference")
		s.clear(ctx)
	}
}

// Load returns the previously saved selection. Absent key, unavailable
// storage, or a payload that is not a JSON array of strings all yield an
// empty selection. A corrupt payload is deleted as a side effect of the
// failed read.
func (s *Store) Load(ctx context.Context) []string {
	payload, err := s.repo.Get(ctx, selectedLinesKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Msg("failed to load line selection")
		}
		return []string{}
	}

	var lines []string
	if err := json.Unmarshal(payload, &lines); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt line selection in storage, deleting")
		s.clear(ctx)
		return []string{}
	}

	if lines == nil {
		lines = []string{}
	}
	return lines
}

// Clear removes the stored selection entirely. Unlike Save and Load this
// reports failure, since it backs an explicit operator action.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, selectedLinesKey); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// clear best-effort deletes the stored value.
func (s *Store) clear(ctx context.Context) {
	if err := s.repo.Delete(ctx, selectedLinesKey); err != nil {
		s.logger.Debug().Err(err).Msg("failed to clear stored line selection")
	}
}
