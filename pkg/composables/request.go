package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lekbanken/lekbanken/pkg/constants"
)

// UseLogger returns the request-scoped logger entry, falling back to the
// standard logger when the middleware did not run (tests, CLI tools).
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger.(*logrus.Entry)
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}
