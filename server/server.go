// Package server runs the HTTP server with graceful shutdown and optional
// TLS, either from certificate files or via ACME autocert.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const (
	DefaultPort = "8080"

	TLSModeAuto   = "auto"
	TLSModeManual = "manual"

	DefaultTLSMode = TLSModeAuto
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type Server struct {
	Port string
	Host string
	TLS  ServerTLS
}

type ServerTLS struct {
	Enabled  bool
	Mode     string
	AutoCert *ServerTLSAutoCert
	CertFile string
	KeyFile  string
}

type ServerTLSAutoCert struct {
	CacheDir string
	Domains  []string
	Email    string
}

// Run serves the handler until ctx is canceled, then shuts down
// gracefully.
func (srv *Server) Run(ctx context.Context, handler http.Handler) error {
	addr := net.JoinHostPort(srv.Host, srv.Port)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	switch {
	case srv.TLS.Enabled && srv.TLS.Mode == TLSModeAuto:
		if srv.TLS.AutoCert == nil || len(srv.TLS.AutoCert.Domains) == 0 {
			return fmt.Errorf("tls auto mode requires at least one domain")
		}

		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(srv.TLS.AutoCert.CacheDir),
			HostPolicy: autocert.HostWhitelist(srv.TLS.AutoCert.Domains...),
			Email:      srv.TLS.AutoCert.Email,
		}

		httpServer.TLSConfig = manager.TLSConfig()

		slog.InfoContext(ctx, "server listening",
			"address", domainsToHTTPSAddress(srv.TLS.AutoCert.Domains))

		go func() {
			errCh <- httpServer.ListenAndServeTLS("", "")
		}()
	case srv.TLS.Enabled && srv.TLS.Mode == TLSModeManual:
		if srv.TLS.CertFile == "" || srv.TLS.KeyFile == "" {
			return fmt.Errorf("tls manual mode requires cert and key files")
		}

		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}

		slog.InfoContext(ctx, "server listening", "address", "https://"+addr)

		go func() {
			errCh <- httpServer.ListenAndServeTLS(srv.TLS.CertFile, srv.TLS.KeyFile)
		}()
	case srv.TLS.Enabled:
		return fmt.Errorf("unknown tls mode %q", srv.TLS.Mode)
	default:
		slog.InfoContext(ctx, "server listening", "address", "http://"+addr)

		go func() {
			errCh <- httpServer.ListenAndServe()
		}()
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func domainsToHTTPSAddress(domains []string) string {
	addresses := make([]string, 0, len(domains))

	for _, domain := range domains {
		addresses = append(addresses, "https://"+domain)
	}

	return strings.Join(addresses, ", ")
}
