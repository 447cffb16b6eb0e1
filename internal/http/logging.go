package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/room-access/internal/logging"
)

func handlerLogger(ctx context.Context, fallback *zap.Logger, handlerName, operation string, fields ...zap.Field) *zap.Logger {
	return logging.Component(ctx, fallback, "handler", handlerName, operation, fields...)
}

func errorKindField(kind string) zap.Field {
	return zap.String("error_kind", kind)
}
