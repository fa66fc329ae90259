package http

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer wraps handler in an http.Server whose request contexts are
// cancelled when Shutdown starts, which ends open event streams.
func NewServer(addr string, handler http.Handler) *http.Server {
	baseCtx, cancelStreams := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	srv.RegisterOnShutdown(cancelStreams)
	return srv
}
