// Package importservice restores favorites from a palette CSV export.
package importservice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bbernstein/lacylights-palette/internal/favorites"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/export"
)

// ImportMode determines how to handle the import.
type ImportMode string

const (
	// ImportModeMerge adds the exported favorites to the current ones.
	ImportModeMerge ImportMode = "MERGE"
	// ImportModeReplace makes the exported favorites the only favorites.
	ImportModeReplace ImportMode = "REPLACE"
)

// ErrUnknownMode is returned for an ImportMode other than MERGE or REPLACE.
var ErrUnknownMode = errors.New("unknown import mode")

// ImportStats contains statistics about an import.
type ImportStats struct {
	FavoritesAdded   int `json:"favoritesAdded"`
	AlreadyFavorite  int `json:"alreadyFavorite"`
	FavoritesCleared int `json:"favoritesCleared"`
	Unmatched        int `json:"unmatched"`
}

// ImportOptions configures the import behavior.
type ImportOptions struct {
	Mode ImportMode
}

// Service handles favorite import operations.
type Service struct {
	store     *palette.Store
	favorites *favorites.Service
}

// NewService creates a new import service.
func NewService(store *palette.Store, favs *favorites.Service) *Service {
	return &Service{store: store, favorites: favs}
}

// ImportCSV reads an export produced by export.WriteCSV and applies its
// favorite flags.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportStats, []string, error) {
	rows, err := export.ReadCSV(r)
	if err != nil {
		return nil, nil, err
	}
	return s.ImportFavorites(ctx, rows, opts)
}

// ImportFavorites marks every favorite row as a favorite of this store.
// Rows are matched by channel values, not index, so exports from a domain
// listed in another order still apply. Rows with values outside this
// store's steps are reported as warnings.
func (s *Service) ImportFavorites(ctx context.Context, rows []export.Row, opts ImportOptions) (*ImportStats, []string, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ImportModeMerge
	}
	if mode != ImportModeMerge && mode != ImportModeReplace {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}

	var warnings []string
	stats := &ImportStats{}
	wanted := make(map[int]bool)

	for _, row := range rows {
		if !row.Favorite {
			continue
		}
		index, ok := s.store.IndexOf(row.Channels)
		if !ok {
			stats.Unmatched++
			warnings = append(warnings, fmt.Sprintf("row %d (%s) is not part of steps %s", row.Index, row.Channels, s.store.Signature()))
			continue
		}
		wanted[index] = true
	}

	if mode == ImportModeReplace {
		for _, index := range s.favorites.List() {
			if wanted[index] {
				continue
			}
			if err := s.favorites.Set(ctx, index, false); err != nil {
				return stats, warnings, err
			}
			stats.FavoritesCleared++
		}
	}

	for index := range wanted {
		if s.favorites.IsFavorite(index) {
			stats.AlreadyFavorite++
			continue
		}
		if err := s.favorites.Set(ctx, index, true); err != nil {
			return stats, warnings, err
		}
		stats.FavoritesAdded++
	}

	return stats, warnings, nil
}
