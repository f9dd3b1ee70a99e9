package conanserver

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// withLogger stashes a request-scoped logger in ctx, mirroring reva's
// pkg/appctx.WithLogger/GetLogger convention of carrying a child zerolog
// logger through the request context instead of a package-level global.
func withLogger(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// getLogger retrieves the request-scoped logger, falling back to a
// disabled logger if none was attached.
func getLogger(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}
