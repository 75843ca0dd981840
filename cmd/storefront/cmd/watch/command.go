// Package watch provides the long-running watch command.
package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront"
	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/internal/events"
	"github.com/agentstation/storefront/internal/events/wsstream"
	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// NewCommand creates the watch command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "core",
		Short:   "Keep the product list in sync and print changes",
		Long: `Watch performs the initial fetch, then keeps refreshing and probing
connectivity until interrupted. Every state change is printed.

With --listen, events are also streamed to websocket clients at /events.`,
		Example: `  storefront watch
  storefront watch -o json
  storefront watch --listen :8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, err := cmd.Flags().GetString("listen")
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), app, listen)
		},
	}

	cmd.Flags().String("listen", "", "Serve a websocket event stream on this address")

	return cmd
}

func run(ctx context.Context, w io.Writer, app application.Application, listen string) error {
	sf, err := app.Storefront()
	if err != nil {
		return err
	}
	logger := app.Logger()

	sub := events.NewChannelSubscriber(constants.ChannelBufferSize)
	sf.Subscribe(sub)
	defer sf.Unsubscribe(sub)

	if listen != "" {
		stop, err := serveStream(ctx, sf, listen, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := sf.Start(ctx); err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Watch stopped")
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := printEvent(w, format, event); err != nil {
				return err
			}
		}
	}
}

// serveStream starts the websocket hub and its HTTP server. The returned
// function shuts the server down.
func serveStream(ctx context.Context, sf storefront.Client, addr string, logger *zerolog.Logger) (func(), error) {
	hub := wsstream.NewHub(logger)
	go hub.Run(ctx)
	sf.Subscribe(wsstream.NewSubscriber(hub))

	mux := http.NewServeMux()
	mux.Handle("/events", hub)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Surface bind failures before the watch starts
	select {
	case err := <-errCh:
		if err != nil {
			return nil, errors.WrapResource("listen", "event stream", addr, err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	logger.Info().Str("addr", addr).Msg("Streaming events on /events")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Event stream shutdown failed")
		}
	}, nil
}

// printEvent writes one event. Table formats get a one-line summary, other
// formats the full event.
func printEvent(w io.Writer, format output.Format, event events.Event) error {
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, event)
	}
	_, err := fmt.Fprintf(w, "%s  %-22s %s\n", event.Timestamp.Format(time.TimeOnly), event.Type, summary(event))
	return err
}

func summary(event events.Event) string {
	switch data := event.Data.(type) {
	case storefront.State:
		s := fmt.Sprintf("phase=%s products=%d limit=%d layout=%s", data.Phase, len(data.Products), data.Limit, data.Layout)
		if data.Message != "" {
			s += fmt.Sprintf(" message=%q", data.Message)
		}
		return s
	case catalogs.Product:
		return fmt.Sprintf("%s %q", data.Key(), data.TitleValue())
	case map[string]any:
		return fmt.Sprint(data)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", data)
	}
}
