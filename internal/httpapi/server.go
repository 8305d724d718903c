package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/shasu1pm/VoxText-AI/internal/caption"
	"github.com/shasu1pm/VoxText-AI/internal/service"
)

// Resolver is the caption resolution pipeline consumed by the HTTP layer.
type Resolver interface {
	ResolveMetadata(ctx context.Context, ref string) (*service.Metadata, error)
	ResolveCaptions(ctx context.Context, ref, lang string) (*caption.Result, error)
}

type Server struct {
	resolver Resolver

	mux    *http.ServeMux
	server *http.Server
}

func NewServer(resolver Resolver) *Server {
	s := &Server{
		resolver: resolver,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/metadata", s.handleMetadata)
	s.mux.HandleFunc("/api/captions", s.handleCaptions)
}
