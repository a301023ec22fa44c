package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"taskapi/internal/auth"
	"taskapi/internal/blobstore"
)

const (
	apiKeyEnvKey      = "TASKAPI_API_KEY"
	apiKeyHashEnvKey  = "TASKAPI_API_KEY_HASH"
	allowRemoteEnvKey = "TASKAPI_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second

	// base64 inflates by 4/3; the rest covers the JSON envelope.
	bodyEnvelopeSlack = 64 << 10
)

// Server exposes the router over net/http.
type Server struct {
	addr         string
	router       *Router
	logger       *slog.Logger
	keys         *auth.KeyVerifier
	maxBodyBytes int64
	localBlobs   *blobstore.LocalStore
}

// New creates a new server instance.
func New(addr string, router *Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	keys, err := auth.NewKeyVerifier(os.Getenv(apiKeyEnvKey), os.Getenv(apiKeyHashEnvKey))
	if err != nil {
		// An unusable hash rejects every request rather than disabling auth.
		logger.Error("api key configuration invalid; rejecting all requests", "error", err)
		keys = &auth.KeyVerifier{}
	}
	return &Server{
		addr:         addr,
		router:       router,
		logger:       logger,
		keys:         keys,
		maxBodyBytes: bodyLimitFor(DefaultMaxUploadBytes),
	}
}

// ConfigureUploads sizes the request body cap from the decoded upload limit.
func (s *Server) ConfigureUploads(maxUploadBytes int64) {
	if maxUploadBytes > 0 {
		s.maxBodyBytes = bodyLimitFor(maxUploadBytes)
	}
}

// ServeLocalBlobs enables signed downloads for objects kept by local.
func (s *Server) ServeLocalBlobs(local *blobstore.LocalStore) {
	s.localBlobs = local
}

func bodyLimitFor(maxUploadBytes int64) int64 {
	return maxUploadBytes/3*4 + 4 + bodyEnvelopeSlack
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
