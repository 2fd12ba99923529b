package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docindex/internal/config"
	"docindex/internal/ingest"
	"docindex/internal/logger"
	"docindex/internal/search"
	"docindex/internal/store"
)

const maxUploadBytes = 64 << 20

type Server struct {
	cfg      config.Config
	log      *logger.Logger
	db       *store.DB
	store    *store.Store
	coord    *search.Coordinator
	ingestor *ingest.Ingestor
}

func NewServer(cfg config.Config, log *logger.Logger, db *store.DB, st *store.Store, coord *search.Coordinator, ing *ingest.Ingestor) *Server {
	return &Server{cfg: cfg, log: log, db: db, store: st, coord: coord, ingestor: ing}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/documents/upload", s.handleUpload)
	mux.HandleFunc("/documents/list", s.handleList)
	mux.HandleFunc("/documents/delete", s.handleDelete)
	mux.HandleFunc("/collections/list", s.handleCollections)
	mux.HandleFunc("/search", s.handleSearch)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	if !s.passcodeOK(r.FormValue("passcode")) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid passcode"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing filename"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("only PDF files are supported"))
		return
	}

	collection := store.Normalize(r.FormValue("name"))
	targetDir := filepath.Join(s.cfg.UploadsRoot, collection)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("create upload dir: %w", err))
		return
	}
	filename := safeFilename(header.Filename)
	path := filepath.Join(targetDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
		return
	}
	dst.Close()

	ctx := r.Context()
	if err := s.db.WaitReady(ctx, s.cfg.ReadyTimeout, s.cfg.ReadyInterval); err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	if err := s.store.Ensure(ctx, collection); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	result, err := s.ingestor.IngestPDF(ctx, path, collection)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("document uploaded",
		"collection", collection,
		"file", filename,
		"chunks", result.Chunks,
		"pages", result.Pages,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"file_name":  filename,
		"collection": collection,
		"source":     result.SourceBase,
		"chunks":     result.Chunks,
		"pages":      result.Pages,
	})
}

type listRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

type documentEntry struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Chunks int    `json:"chunks"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if !s.passcodeOK(req.Passcode) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid passcode"))
		return
	}
	collection := store.Normalize(req.Name)
	ctx := r.Context()
	if err := s.store.Ensure(ctx, collection); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	groups, err := s.store.ListSources(ctx, collection)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	docs := make([]documentEntry, 0, len(groups))
	for _, g := range groups {
		entry := documentEntry{Source: g.Source, Name: filepath.Base(g.Source), Chunks: g.Count}
		if info, err := os.Stat(g.Source); err == nil {
			entry.Size = info.Size()
		}
		docs = append(docs, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": docs})
}

type deleteRequest struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Passcode string `json:"passcode"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if !s.passcodeOK(req.Passcode) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid passcode"))
		return
	}
	collection := store.Normalize(req.Name)
	ctx := r.Context()
	if err := s.store.Ensure(ctx, collection); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	deleted, err := s.store.DeleteSource(ctx, collection, req.Source)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("source deleted", "collection", collection, "source", req.Source, "deleted", deleted)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "deleted": deleted})
}

type collectionsRequest struct {
	Passcode string `json:"passcode"`
}

// handleCollections lists existing tenant collections. Operational
// endpoint; the seed collection is not a tenant and is not included.
func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req collectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if !s.passcodeOK(req.Passcode) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid passcode"))
		return
	}
	names, err := s.store.TenantCollections(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "collections": names})
}

type searchRequest struct {
	Name     string `json:"name"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Passcode string `json:"passcode"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if !s.passcodeOK(req.Passcode) {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("invalid passcode"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}
	collection := store.Normalize(req.Name)
	ctx := r.Context()
	if err := s.store.Ensure(ctx, collection); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	hits, err := s.coord.Across(ctx, req.Query, limit, []string{collection, s.cfg.SeedCollection})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	// "No results" is a reportable outcome, not an error: the agent must
	// know the corpus had nothing rather than answer from elsewhere.
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "results": hits})
}

func (s *Server) passcodeOK(passcode string) bool {
	return s.cfg.Passcode == "" || passcode == s.cfg.Passcode
}

func safeFilename(name string) string {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document.pdf"
	}
	var b strings.Builder
	for _, ch := range base {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '-', ch == '_', ch == '.':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := b.String()
	if strings.Trim(cleaned, "._") == "" {
		return "document.pdf"
	}
	return cleaned
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"status": "error", "error": err.Error()})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.APIAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
