// Package api serves the palette over HTTP: record queries, favorites,
// exports and a websocket feed of favorite changes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bbernstein/lacylights-palette/internal/favorites"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/export"
	importservice "github.com/bbernstein/lacylights-palette/internal/services/import"
	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
)

// Server holds the handlers' dependencies.
type Server struct {
	store     *palette.Store
	favorites *favorites.Service
	pubsub    *pubsub.PubSub
	log       *zap.Logger

	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// NewServer creates the API server.
func NewServer(store *palette.Store, favs *favorites.Service, ps *pubsub.PubSub) *Server {
	return &Server{
		store:     store,
		favorites: favs,
		pubsub:    ps,
		log:       logger.Named("api"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: 10 * time.Second,
	}
}

// Routes mounts every endpoint on r. Only the /api routes get a request
// timeout; the websocket feed is long-lived.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/records", s.listRecords)
		r.Get("/records/{index}", s.getRecord)
		r.Post("/records/{index}/favorite", s.setFavorite)
		r.Get("/favorites", s.listFavorites)
		r.Post("/favorites/import", s.importFavorites)
		r.Get("/summary", s.summary)
		r.Get("/export.csv", s.exportCSV)
		r.Get("/export.json", s.exportJSON)
	})
	r.Get("/ws", s.feed)
}

// RecordList is the body of GET /api/records.
type RecordList struct {
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Records []export.Row `json:"records"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	favs := s.favorites.Snapshot()
	rows, err := export.NewService(s.store, favs).Rows(spec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	total, err := s.store.Count(spec, favs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordList{
		Total:   total,
		Offset:  spec.Offset,
		Limit:   spec.Limit,
		Records: rows,
	})
}

// RecordDetail is the body of GET /api/records/{index}.
type RecordDetail struct {
	palette.Record
	Hex      string  `json:"hex"`
	WheelX   float64 `json:"wheelX"`
	WheelY   float64 `json:"wheelY"`
	Favorite bool    `json:"favorite"`
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	x, y := rec.Classification.WheelPosition()
	writeJSON(w, http.StatusOK, RecordDetail{
		Record:   rec,
		Hex:      rec.Color.Hex(),
		WheelX:   x,
		WheelY:   y,
		Favorite: s.favorites.IsFavorite(rec.Index),
	})
}

// FavoriteRequest optionally sets the flag; without a body the flag is
// toggled.
type FavoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

// FavoriteResponse reports a record's flag after a change.
type FavoriteResponse struct {
	Index    int  `json:"index"`
	Favorite bool `json:"favorite"`
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req FavoriteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}

	on := false
	if req.Favorite != nil {
		on = *req.Favorite
		err = s.favorites.Set(r.Context(), rec.Index, on)
	} else {
		on, err = s.favorites.Toggle(r.Context(), rec.Index)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{Index: rec.Index, Favorite: on})
}

func (s *Server) listFavorites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"signature": s.store.Signature(),
		"indices":   s.favorites.List(),
	})
}

// ImportResponse is the body of POST /api/favorites/import.
type ImportResponse struct {
	Stats    *importservice.ImportStats `json:"stats"`
	Warnings []string                   `json:"warnings"`
}

// importFavorites applies the favorite flags of a CSV export in the request
// body. ?mode=replace clears favorites the export does not mark.
func (s *Server) importFavorites(w http.ResponseWriter, r *http.Request) {
	opts := importservice.ImportOptions{Mode: importservice.ImportMode(strings.ToUpper(r.URL.Query().Get("mode")))}
	stats, warnings, err := importservice.NewService(s.store, s.favorites).ImportCSV(r.Context(), r.Body, opts)
	if err != nil {
		if errors.Is(err, export.ErrInvalidCSV) || errors.Is(err, importservice.ErrUnknownMode) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, ImportResponse{Stats: stats, Warnings: warnings})
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	palette.Summary
	Signature string `json:"signature"`
	Favorites int    `json:"favorites"`
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SummaryResponse{
		Summary:   palette.Summarize(s.store.All()),
		Signature: s.store.Signature(),
		Favorites: s.favorites.Count(),
	})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	rows, err := export.NewService(s.store, s.favorites.Snapshot()).Rows(spec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="palette.csv"`)
	if err := export.WriteCSV(w, rows); err != nil {
		s.log.Error("csv export failed", zap.Error(err))
	}
}

func (s *Server) exportJSON(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	exported, err := export.NewService(s.store, s.favorites.Snapshot()).ExportPalette(spec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="palette.json"`)
	writeJSON(w, http.StatusOK, exported)
}

// record resolves the {index} URL parameter.
func (s *Server) record(r *http.Request) (palette.Record, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return palette.Record{}, fmt.Errorf("%w: index %q is not an integer", errBadRequest, raw)
	}
	return s.store.Get(i)
}

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, palette.ErrInvalidFilterSpec), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, palette.ErrIndexOutOfRange):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
