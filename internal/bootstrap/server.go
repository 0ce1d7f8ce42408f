package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/relay"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Bridge feeds broadcasts from other instances into the local hub.
type Bridge interface {
	Run(ctx context.Context, hub *relay.Hub) error
}

// Run serves HTTP until ctx is canceled or the server fails. On shutdown the relay is
// closed first so open event streams end and do not hold up the graceful stop.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, hub *relay.Hub, bridge Bridge, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
		}
	}()

	if bridge != nil {
		go func() {
			if err := bridge.Run(ctx, hub); err != nil && ctx.Err() == nil {
				log.Error("relay bridge stopped, broadcasts stay local", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-errCh:
		hub.Shutdown()
		return err
	case <-ctx.Done():
		log.Info("shutting down http server")
		hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
