// Package webapi provides read-only http api for ingested records and ingest stats.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/tweet-ingest/app/ingest"
	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/lib/lexicon"
	"github.com/umputun/tweet-ingest/lib/record"
)

//go:generate moq --out mocks/records_store.go --pkg mocks --with-resets --skip-ensure . RecordsStore
//go:generate moq --out mocks/ingest_stats.go --pkg mocks --with-resets --skip-ensure . IngestStats
//go:generate moq --out mocks/dictionary_store.go --pkg mocks --with-resets --skip-ensure . DictionaryStore
//go:generate moq --out mocks/checkpoint_info.go --pkg mocks --with-resets --skip-ensure . CheckpointInfo

const (
	appName         = "tweet-ingest"
	defaultSpamList = 100
	maxSpamList     = 1000
)

// Server is a web API server
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version    string          // version to show in /ping
	ListenAddr string          // listen address
	Records    RecordsStore    // stored records
	Ingest     IngestStats     // ingest totals, optional
	Dictionary DictionaryStore // dictionary words, optional
	Checkpoint CheckpointInfo  // ingest checkpoint, optional
	AuthPasswd string          // basic auth password for user "tweet-ingest", no auth if empty
	RateLimit  float64         // max requests per second per client, 0 to disable
}

// RecordsStore is a read access to stored records
type RecordsStore interface {
	Get(ctx context.Context, id int64) (*record.Record, error)
	Replies(ctx context.Context, parentID int64) ([]*record.Record, error)
	Spam(ctx context.Context, limit int) ([]*record.Record, error)
	Stats(ctx context.Context) (storage.RecordsStats, error)
}

// IngestStats reports totals of the running ingest
type IngestStats interface {
	Stats() ingest.Stats
}

// DictionaryStore is a read access to words added to the lexicon
type DictionaryStore interface {
	Entries(ctx context.Context, kind lexicon.Kind) ([]storage.DictionaryEntry, error)
	Stats(ctx context.Context) (*storage.DictionaryStats, error)
}

// CheckpointInfo reports when the ingest checkpoint was saved last
type CheckpointInfo interface {
	LastUpdated(ctx context.Context) (time.Time, error)
}

// NewServer creates a new web API server
func NewServer(config Config) *Server {
	return &Server{Config: config}
}

// Run starts the server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout: 30 * time.Second, IdleTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo(appName, "umputun", s.Version), rest.Ping)
	if s.RateLimit > 0 {
		lmt := tollbooth.NewLimiter(s.RateLimit, nil)
		lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
		router.Use(tollbooth.HTTPMiddleware(lmt))
	}
	router.Use(rest.SizeLimit(64 * 1024))

	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
		router.Use(rest.BasicAuthWithUserPasswd(appName, s.AuthPasswd))
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	router.HandleFunc("GET /stats", s.statsHandler)
	router.HandleFunc("GET /spam", s.spamHandler)
	if s.Dictionary != nil {
		router.HandleFunc("GET /dictionary", s.dictionaryHandler)
	}
	router.Mount("/records").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /{id}", s.recordHandler)
		r.HandleFunc("GET /{id}/replies", s.repliesHandler)
	})
	return router
}

// statsHandler handles GET /stats, returns storage and ingest totals, dictionary counts and checkpoint time if configured
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.Records.Stats(r.Context())
	if err != nil {
		renderError(w, http.StatusInternalServerError, err, "can't get stats")
		return
	}
	resp := rest.JSON{"storage": st}
	if s.Ingest != nil {
		resp["ingest"] = s.Ingest.Stats()
	}
	if s.Dictionary != nil {
		dst, derr := s.Dictionary.Stats(r.Context())
		if derr != nil {
			renderError(w, http.StatusInternalServerError, derr, "can't get dictionary stats")
			return
		}
		resp["dictionary"] = dst
	}
	if s.Checkpoint != nil {
		ts, cerr := s.Checkpoint.LastUpdated(r.Context())
		switch {
		case cerr == nil:
			resp["checkpoint_updated"] = ts
		case !errors.Is(cerr, storage.ErrNotFound):
			renderError(w, http.StatusInternalServerError, cerr, "can't get checkpoint time")
			return
		}
	}
	rest.RenderJSON(w, resp)
}

// dictionaryHandler handles GET /dictionary?kind=noise, returns dictionary words, all kinds if kind not set
func (s *Server) dictionaryHandler(w http.ResponseWriter, r *http.Request) {
	kind := lexicon.Kind(r.URL.Query().Get("kind"))
	if kind != "" {
		if err := kind.Validate(); err != nil {
			renderError(w, http.StatusBadRequest, err, "invalid kind")
			return
		}
	}
	entries, err := s.Dictionary.Entries(r.Context(), kind)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err, "can't get dictionary")
		return
	}
	if entries == nil {
		entries = []storage.DictionaryEntry{}
	}
	rest.RenderJSON(w, entries)
}

// recordHandler handles GET /records/{id}
func (s *Server) recordHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, http.StatusBadRequest, err, "invalid record id")
		return
	}
	rec, err := s.Records.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			code = http.StatusNotFound
		}
		renderError(w, code, err, "can't get record")
		return
	}
	rest.RenderJSON(w, rec.Snapshot())
}

// repliesHandler handles GET /records/{id}/replies, returns stored replies and retweets of the record
func (s *Server) repliesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, http.StatusBadRequest, err, "invalid record id")
		return
	}
	recs, err := s.Records.Replies(r.Context(), id)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err, "can't get replies")
		return
	}
	rest.RenderJSON(w, snapshots(recs))
}

// spamHandler handles GET /spam?limit=N, returns the most recent spam records
func (s *Server) spamHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultSpamList
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, http.StatusBadRequest, fmt.Errorf("bad limit %q", v), "invalid limit")
			return
		}
		limit = min(n, maxSpamList)
	}
	recs, err := s.Records.Spam(r.Context(), limit)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err, "can't get spam")
		return
	}
	rest.RenderJSON(w, snapshots(recs))
}

// renderError responds with json error and logs it
func renderError(w http.ResponseWriter, code int, err error, msg string) {
	log.Printf("[WARN] %s: %v", msg, err)
	w.WriteHeader(code)
	rest.RenderJSON(w, rest.JSON{"error": msg, "details": err.Error()})
}

func snapshots(recs []*record.Record) []record.Snapshot {
	res := make([]record.Snapshot, 0, len(recs))
	for _, rec := range recs {
		res = append(res, rec.Snapshot())
	}
	return res
}
