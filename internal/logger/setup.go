package logger

import (
	"context"
	"io"
	"log/slog"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// ShippingOptions configures optional remote log shipping to Better Stack.
// Shipping is disabled when Token is empty.
type ShippingOptions struct {
	Token    string
	Endpoint string // ingesting host URL, optional
}

// Setup builds the application logger: a JSON console handler, plus an async
// Better Stack handler when a token is configured. The returned shutdown
// function flushes pending remote records; it is safe to call when shipping
// is disabled.
func Setup(level string, w io.Writer, ship ShippingOptions) (*Logger, func(context.Context) error) {
	console := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: renameStandardKeys,
	})

	if ship.Token == "" {
		return NewWithHandler(console), func(context.Context) error { return nil }
	}

	remote := slogbetterstack.Option{
		Token:    ship.Token,
		Endpoint: ship.Endpoint,
		Level:    ParseLevel(level),
	}.NewBetterstackHandler()

	async := NewAsyncHandler(remote, AsyncOptions{})
	log := NewWithHandler(NewMultiHandler(console, async))
	return log, async.Shutdown
}
