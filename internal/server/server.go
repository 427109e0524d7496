// Package server exposes the import pipeline and the reference data over
// HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/ingest"
	"kharnish/budgie/internal/ingesterror"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/sheet"
	"kharnish/budgie/internal/store"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// Importer runs one upload through the ingestion pipeline.
type Importer interface {
	ImportReader(ctx context.Context, r io.Reader, accountHint string) ingest.Result
}

// Server routes HTTP requests to the pipeline and the store.
type Server struct {
	importer  Importer
	store     store.Store
	logger    logging.Logger
	maxUpload int64
	router    *mux.Router
}

// New creates the server and its routes. maxUpload bounds the multipart
// body in bytes.
func New(importer Importer, s store.Store, logger logging.Logger, maxUpload int64) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	srv := &Server{importer: importer, store: s, logger: logger, maxUpload: maxUpload}

	r := mux.NewRouter()
	r.Use(RequestID, Recovery(logger), Logger(logger))
	r.HandleFunc("/healthz", srv.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transactions/import", srv.importTransactions).Methods(http.MethodPost)
	api.HandleFunc("/transactions", srv.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/accounts", srv.listAccounts).Methods(http.MethodGet)
	api.HandleFunc("/categories", srv.listCategories).Methods(http.MethodGet)
	srv.router = r
	return srv
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", logging.F("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}

type importResponse struct {
	Message  string `json:"message"`
	ImportID string `json:"import_id"`
	Count    int    `json:"count"`
	Skipped  int    `json:"skipped"`
	Warned   int    `json:"warned"`
	Rejected int    `json:"rejected"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) importTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Error: could not read upload", "")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `Error: missing "file" field`, "")
		return
	}
	defer file.Close()

	if !sheet.IsCSVName(header.Filename) {
		e := ingesterror.NotCSV(nil)
		writeError(w, http.StatusBadRequest, e.Msg, e.Kind.String())
		return
	}

	res := s.importer.ImportReader(r.Context(), file, r.FormValue("account"))
	if !res.OK() {
		status := http.StatusBadRequest
		if res.Err.Kind == ingesterror.Storage {
			status = http.StatusInternalServerError
		}
		writeError(w, status, res.Message(), res.Err.Kind.String())
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Message:  res.Message(),
		ImportID: res.ImportID,
		Count:    res.Count,
		Skipped:  res.Skipped,
		Warned:   res.Warned,
		Rejected: res.Rejected,
	})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{Account: q.Get("account"), Order: store.PostedDesc}
	for param, target := range map[string]*time.Time{"from": &filter.PostedFrom, "to": &filter.PostedTo} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		d, _, err := dateutils.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Error: invalid "+param+" date", "")
			return
		}
		*target = d
	}
	txs, err := s.store.FindTransactions(r.Context(), filter)
	if err != nil {
		s.storeFailure(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts(r.Context())
	if err != nil {
		s.storeFailure(w, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.storeFailure(w, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) storeFailure(w http.ResponseWriter, err error) {
	s.logger.WithError(err).Error("Store read failed")
	writeError(w, http.StatusInternalServerError, "Error: could not read data", ingesterror.Storage.String())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}
