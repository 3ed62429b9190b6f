// Package favorites keeps the user's favorite combinations beside the
// generated palette and persists them per step domain.
package favorites

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/bbernstein/lacylights-palette/internal/database/models"
	"github.com/bbernstein/lacylights-palette/internal/database/repositories"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
)

// Event is published on pubsub.TopicFavoriteChanged.
type Event struct {
	Signature string `json:"signature"`
	Index     int    `json:"index"`
	Channels  string `json:"channels"`
	Favorite  bool   `json:"favorite"`
}

// Service owns the favorite mapping for one store.
type Service struct {
	mu sync.RWMutex

	store    *palette.Store
	repo     *repositories.FavoriteRepository
	settings *repositories.SettingRepository
	pubsub   *pubsub.PubSub // optional
	log      *zap.Logger

	set palette.Favorites
}

// NewService creates a favorites service. settings and ps may be nil.
func NewService(store *palette.Store, repo *repositories.FavoriteRepository, settings *repositories.SettingRepository, ps *pubsub.PubSub) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		settings: settings,
		pubsub:   ps,
		log:      logger.Named("favorites"),
		set:      palette.NewFavorites(),
	}
}

// Load replaces the in-memory set with the persisted favorites for the
// store's step domain. Rows that no longer match the generated record at
// their index are skipped.
func (s *Service) Load(ctx context.Context) error {
	sig := s.store.Signature()

	if s.settings != nil {
		prev, err := s.settings.Value(ctx, repositories.SettingActiveSignature, "")
		if err != nil {
			return fmt.Errorf("failed to read active signature: %w", err)
		}
		if prev != "" && prev != sig {
			s.log.Warn("step domain changed, favorites of the previous domain are not applied",
				zap.String("previous", prev),
				zap.String("current", sig))
		}
		if prev != sig {
			if _, err := s.settings.Upsert(ctx, repositories.SettingActiveSignature, sig); err != nil {
				return fmt.Errorf("failed to store active signature: %w", err)
			}
		}
	}

	rows, err := s.repo.FindBySignature(ctx, sig)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}

	set := palette.NewFavorites()
	for _, row := range rows {
		rec, err := s.store.Get(row.RecordIndex)
		if err != nil || rec.String() != row.Channels {
			s.log.Warn("skipping stale favorite",
				zap.Int("index", row.RecordIndex),
				zap.String("channels", row.Channels))
			continue
		}
		set.Set(row.RecordIndex, true)
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()

	s.log.Info("favorites loaded", zap.String("signature", sig), zap.Int("count", len(set)))
	return nil
}

// IsFavorite implements palette.FavoriteSet.
func (s *Service) IsFavorite(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.IsFavorite(index)
}

// Snapshot returns a copy of the current set, for running a query against
// a consistent view.
func (s *Service) Snapshot() palette.Favorites {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.set)
}

// List returns the favorite indices in ascending order.
func (s *Service) List() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.set))
}

// Count returns the number of favorites.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}

// Set marks or clears the favorite flag of record index.
func (s *Service) Set(ctx context.Context, index int, favorite bool) error {
	rec, err := s.store.Get(index)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set.IsFavorite(index) == favorite {
		return nil
	}
	if err := s.persist(ctx, rec, favorite); err != nil {
		return err
	}
	s.set.Set(index, favorite)
	s.publish(rec, favorite)
	return nil
}

// Toggle flips the favorite flag of record index and returns the new state.
func (s *Service) Toggle(ctx context.Context, index int) (bool, error) {
	rec, err := s.store.Get(index)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	on := !s.set.IsFavorite(index)
	if err := s.persist(ctx, rec, on); err != nil {
		return false, err
	}
	s.set.Set(index, on)
	s.publish(rec, on)
	return on, nil
}

func (s *Service) persist(ctx context.Context, rec palette.Record, favorite bool) error {
	sig := s.store.Signature()
	var err error
	if favorite {
		err = s.repo.Add(ctx, &models.Favorite{
			Signature:   sig,
			RecordIndex: rec.Index,
			Channels:    rec.String(),
		})
	} else {
		err = s.repo.Remove(ctx, sig, rec.Index)
	}
	if err != nil {
		return fmt.Errorf("failed to save favorite %d: %w", rec.Index, err)
	}
	return nil
}

func (s *Service) publish(rec palette.Record, favorite bool) {
	s.log.Debug("favorite changed", zap.Int("index", rec.Index), zap.Bool("favorite", favorite))
	if s.pubsub == nil {
		return
	}
	sig := s.store.Signature()
	s.pubsub.Publish(pubsub.TopicFavoriteChanged, sig, Event{
		Signature: sig,
		Index:     rec.Index,
		Channels:  rec.String(),
		Favorite:  favorite,
	})
}
