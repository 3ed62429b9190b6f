// Package resolvers serves the palette over GraphQL: record queries,
// favorite mutations and a favoriteChanged subscription fed by pubsub.
package resolvers

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/bbernstein/lacylights-palette/internal/api"
	"github.com/bbernstein/lacylights-palette/internal/favorites"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies that are shared across all resolvers.
type Resolver struct {
	Store     *palette.Store
	Favorites *favorites.Service
	PubSub    *pubsub.PubSub

	log *zap.Logger
}

// NewResolver creates a new Resolver instance with all dependencies.
func NewResolver(store *palette.Store, favs *favorites.Service, ps *pubsub.PubSub) *Resolver {
	return &Resolver{
		Store:     store,
		Favorites: favs,
		PubSub:    ps,
		log:       logger.Named("graphql"),
	}
}

// Record is a palette record with its favorite flag.
type Record struct {
	palette.Record
	Favorite bool
}

// RecordPage is one page of query results.
type RecordPage struct {
	Total   int
	Offset  int
	Limit   int
	Records []Record
}

// FavoriteResult reports a record's flag after a mutation.
type FavoriteResult struct {
	Index    int
	Favorite bool
}

// Count is one bucket of a summary.
type Count struct {
	Key   string
	Count int
}

// Summary counts the served records per hue group, category and
// brightness level.
type Summary struct {
	Signature        string
	Total            int
	Favorites        int
	HueGroups        []Count
	Categories       []Count
	BrightnessLevels []Count
}

// Records runs filter, given in the query parameter syntax of
// GET /api/records, against the store.
func (r *Resolver) Records(_ context.Context, filter url.Values) (*RecordPage, error) {
	spec, err := api.ParseFilter(filter)
	if err != nil {
		return nil, err
	}

	favs := r.Favorites.Snapshot()
	seq, err := r.Store.Query(spec, favs)
	if err != nil {
		return nil, err
	}
	total, err := r.Store.Count(spec, favs)
	if err != nil {
		return nil, err
	}

	page := &RecordPage{Total: total, Offset: spec.Offset, Limit: spec.Limit, Records: []Record{}}
	for rec := range seq {
		page.Records = append(page.Records, Record{Record: rec, Favorite: favs.IsFavorite(rec.Index)})
	}
	return page, nil
}

// Record returns the record at index.
func (r *Resolver) Record(_ context.Context, index int) (*Record, error) {
	rec, err := r.Store.Get(index)
	if err != nil {
		return nil, err
	}
	return &Record{Record: rec, Favorite: r.Favorites.IsFavorite(index)}, nil
}

// FavoriteRecords returns every favorite record in index order.
func (r *Resolver) FavoriteRecords(_ context.Context) []Record {
	indices := r.Favorites.List()
	out := make([]Record, 0, len(indices))
	for _, i := range indices {
		if rec, err := r.Store.Get(i); err == nil {
			out = append(out, Record{Record: rec, Favorite: true})
		}
	}
	return out
}

// Summary counts every record of the store.
func (r *Resolver) Summary(_ context.Context) *Summary {
	sum := palette.Summarize(r.Store.All())
	out := &Summary{
		Signature: r.Store.Signature(),
		Total:     sum.Total,
		Favorites: r.Favorites.Count(),
	}
	for _, g := range r.Store.HueGroups() {
		out.HueGroups = append(out.HueGroups, Count{Key: string(g), Count: sum.HueGroups[g]})
	}
	for _, c := range palette.Categories {
		out.Categories = append(out.Categories, Count{Key: string(c), Count: sum.Categories[c]})
	}
	for level := range r.Store.Levels() {
		out.BrightnessLevels = append(out.BrightnessLevels, Count{Key: strconv.Itoa(level), Count: sum.Levels[level]})
	}
	return out
}

// SetFavorite marks or clears record index.
func (r *Resolver) SetFavorite(ctx context.Context, index int, favorite bool) (*FavoriteResult, error) {
	if err := r.Favorites.Set(ctx, index, favorite); err != nil {
		return nil, err
	}
	return &FavoriteResult{Index: index, Favorite: favorite}, nil
}

// ToggleFavorite flips the flag of record index.
func (r *Resolver) ToggleFavorite(ctx context.Context, index int) (*FavoriteResult, error) {
	on, err := r.Favorites.Toggle(ctx, index)
	if err != nil {
		return nil, err
	}
	return &FavoriteResult{Index: index, Favorite: on}, nil
}

// FavoriteChanged streams favorite changes of the served step domain until
// ctx is done.
func (r *Resolver) FavoriteChanged(ctx context.Context) (<-chan *favorites.Event, error) {
	sub := r.PubSub.Subscribe(pubsub.TopicFavoriteChanged, r.Store.Signature(), 16)
	r.log.Debug("subscription started", zap.String("subscriber", sub.ID))

	ch := make(chan *favorites.Event, 1)
	go func() {
		defer close(ch)
		defer r.PubSub.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				r.log.Debug("subscription ended", zap.String("subscriber", sub.ID))
				return
			case msg, ok := <-sub.Channel:
				if !ok {
					return
				}
				ev, ok := msg.(favorites.Event)
				if !ok {
					continue
				}
				select {
				case ch <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
