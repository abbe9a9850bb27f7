// Package logger builds slog loggers with context injection and keeps
// attribute names consistent across the service.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "quotaguard"),
//		logger.WithContextExtractors(logger.RequestIDExtractor()),
//	)
//	log.WarnContext(ctx, "quota exceeded", logger.UserID(userID), logger.EventKind(kind))
package logger
