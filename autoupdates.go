package storefront

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/storefront/pkg/errors"
)

// AutoRefresher provides controls for periodic refresh.
type AutoRefresher interface {
	// AutoRefreshOn starts refreshing every configured interval
	AutoRefreshOn() error

	// AutoRefreshOff stops periodic refresh
	AutoRefreshOff() error
}

// AutoRefreshOn starts refreshing at the configured interval. Each tick
// fetches at the current limit without replaying the placeholder.
func (c *client) AutoRefreshOn() error {
	interval := c.options.autoRefreshInterval
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "autoRefreshInterval",
			Value:   interval,
			Message: "refresh interval must be positive",
		}
	}

	// Stop any running loop before starting a new one
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx, cancel := context.WithCancel(c.runCtx)
	done := make(chan struct{})
	c.refreshCancel = cancel
	c.refreshDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				err := c.controller.FetchProducts(ctx, false)
				if err != nil {
					if stderrors.Is(err, context.Canceled) {
						return
					}
					c.logger.Warn().Err(err).Msg("Auto refresh degraded")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	c.logger.Debug().Dur("interval", interval).Msg("Auto refresh on")
	return nil
}

// AutoRefreshOff stops periodic refresh and waits for the loop to exit.
func (c *client) AutoRefreshOff() error {
	c.refreshMu.Lock()
	cancel, done := c.refreshCancel, c.refreshDone
	c.refreshCancel, c.refreshDone = nil, nil
	c.refreshMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
