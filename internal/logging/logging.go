// Package logging turns event bus traffic into structured zap logs.
package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/reqid"
)

// Attach subscribes the logger to the global event bus and returns a
// function that detaches every subscription again.
func Attach(logger *zap.Logger) (detach func()) {
	var unsubs []func()

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		logger.Info("http request",
			append(ridField(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
			)...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		logger.Info("http response",
			append(ridField(ctx),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.GraphQLValidationFinish) {
		logger.Debug("graphql validation",
			append(ridField(ctx),
				zap.Bool("cached", e.Cached),
				zap.Int("errors", e.ErrorCount),
				zap.Duration("duration", e.Duration),
			)...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
		logger.Debug("graphql operation start",
			append(ridField(ctx),
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
			)...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		fields := append(ridField(ctx),
			zap.String("operation", e.OperationName),
			zap.String("type", e.OperationType),
			zap.Int("errors", len(e.Errors)),
			zap.Duration("duration", e.Duration),
		)
		if len(e.Errors) > 0 {
			fields = append(fields, zap.Errors("error_details", e.Errors))
			logger.Warn("graphql operation finished with errors", fields...)
			return
		}
		logger.Info("graphql operation finished", fields...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.GRPCClientStart) {
		logger.Debug("grpc call start",
			append(ridField(ctx),
				zap.String("service", e.Service),
				zap.String("grpc_method", e.Method),
				zap.String("target", e.Target),
			)...)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.GRPCClientFinish) {
		fields := append(ridField(ctx),
			zap.String("service", e.Service),
			zap.String("grpc_method", e.Method),
			zap.String("target", e.Target),
			zap.String("code", e.Code.String()),
			zap.Duration("duration", e.Duration),
		)
		if e.Err != nil {
			fields = append(fields, zap.Error(e.Err))
			logger.Warn("grpc call failed", fields...)
			return
		}
		logger.Debug("grpc call finished", fields...)
	}))

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func ridField(ctx context.Context) []zap.Field {
	if rid, ok := reqid.FromContext(ctx); ok {
		return []zap.Field{zap.String("request_id", rid)}
	}
	return nil
}
