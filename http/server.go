package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type Option func(*Server) error

func Address(address string) Option {
	return func(s *Server) error {
		s.server.Addr = address
		return nil
	}
}

func Handle(handler http.Handler) Option {
	return func(s *Server) error {
		s.handler = handler
		return nil
	}
}

func RequestLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.requestLogger = logger
		return nil
	}
}

// CertificateFile and CertificateKeyFile enable TLS.
func CertificateFile(file string) Option {
	return func(s *Server) error {
		s.certFile = file
		return nil
	}
}

func CertificateKeyFile(file string) Option {
	return func(s *Server) error {
		s.keyFile = file
		return nil
	}
}

type Server struct {
	certFile string
	keyFile  string

	logger        *slog.Logger
	requestLogger *slog.Logger

	handler http.Handler
	server  *http.Server
}

func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		certFile:      "",
		keyFile:       "",
		logger:        slog.Default(),
		requestLogger: nil,
		handler:       http.DefaultServeMux,
		server:        &http.Server{Addr: "127.0.0.1:8080"},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if (s.certFile == "") != (s.keyFile == "") {
		return nil, errors.New("TLS requires both certificate and key file")
	}
	if s.requestLogger != nil {
		s.handler = s.logRequest(s.handler)
	}
	s.server.Handler = s.handler
	return s, nil
}

// ListenAndServe serves until ctx is done and then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if s.certFile != "" {
			s.logger.Info("serving HTTPS", "address", s.server.Addr)
			err = s.server.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			s.logger.Info("serving HTTP", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// Middleware

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requestLogger.Info("got request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
