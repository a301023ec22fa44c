package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/cors"

	"taskapi/internal/blobstore"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.localBlobs != nil {
		mux.HandleFunc("GET "+blobstore.DownloadPathPrefix+"{key...}", s.handleBlobDownload)
	}
	mux.Handle("/", s.withAPIKey(http.HandlerFunc(s.handleDispatch)))

	c := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       strings.Split(corsAllowHeaders, ","),
		OptionsSuccessStatus: http.StatusOK,
	})

	return s.withRequestLogging(c.Handler(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleDispatch turns the HTTP request into a Request and writes the
// router's Response.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	req, err := s.toRequest(w, r)
	if err != nil {
		s.writeResponse(w, s.router.errorResponse(nil, resourceForPath(r.URL.Path), classifyDecodeJSONError(err)))
		return
	}
	s.writeResponse(w, s.router.Dispatch(r.Context(), req))
}

func (s *Server) toRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	req := Request{
		Method:          r.Method,
		Path:            r.URL.Path,
		QueryParameters: map[string]string{},
		Headers:         map[string]string{},
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			req.QueryParameters[key] = values[0]
		}
	}
	for key, values := range r.Header {
		if len(values) > 0 {
			req.Headers[key] = values[0]
		}
	}

	if r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
		if err != nil {
			return req, err
		}
		req.Body = string(body)
	}
	return req, nil
}

func (s *Server) writeResponse(w http.ResponseWriter, resp Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		if _, err := io.WriteString(w, resp.Body); err != nil {
			s.log().Error("write response", "status", resp.StatusCode, "error", err)
		}
	}
}

// handleBlobDownload serves objects from the local blob store after checking
// the URL signature.
func (s *Server) handleBlobDownload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	q := r.URL.Query()
	if err := s.localBlobs.Verify(key, q.Get("expires"), q.Get("signature")); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, blobstore.ErrInvalidKey) {
			status = http.StatusBadRequest
		}
		s.log().Debug("blob download rejected", "key", key, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	rc, info, err := s.localBlobs.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.log().Error("blob download failed", "key", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if name := info.Metadata["originalFileName"]; name != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Error("blob download copy", "key", key, "error", err)
	}
}

// withAPIKey requires X-Api-Key when TASKAPI_API_KEY or TASKAPI_API_KEY_HASH
// is set. Preflight requests pass through.
func (s *Server) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.keys.Enabled() || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !s.keys.Verify(r.Header.Get("X-Api-Key")) {
			err := unauthorized(errors.New("missing or invalid api key"))
			s.writeResponse(w, s.router.errorResponse(&Request{Method: r.Method, Path: r.URL.Path}, resourceForPath(r.URL.Path), err))
			return
		}
		next.ServeHTTP(w, r)
	})
}
