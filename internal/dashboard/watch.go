package dashboard

import (
	"context"
	"errors"
)

// Watch subscribes to the store's change feed and calls OnRemoteChange for
// every notification until ctx is done. It returns after the subscription
// has been torn down.
func (c *Controller) Watch(ctx context.Context) error {
	unsubscribe, err := c.src.Subscribe(ctx, func() {
		if err := c.OnRemoteChange(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("refresh after change failed", "error", err)
		}
	})
	if err != nil {
		c.log.Error("change feed subscribe failed", "error", err)
		return err
	}
	c.log.Info("watching for changes")

	<-ctx.Done()
	unsubscribe()
	c.log.Info("stopped watching for changes")
	return nil
}
