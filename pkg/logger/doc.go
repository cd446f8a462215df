// Package logger builds *slog.Logger instances for the notification services.
//
// New takes functional options selecting the output format, level, static
// attributes and ContextExtractor callbacks. The resulting handler is wrapped
// in LogHandlerDecorator, which runs every extractor against the record's
// context, so values such as the request id end up on each line without
// being passed around explicitly.
//
// Attribute helpers (Error, NotificationID, NotificationType, ErrorType,
// MessageID, RetryCount, ...) keep key names consistent across packages.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, "notifier"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "notification sent",
//		logger.NotificationID(id),
//		logger.NotificationType(notification.TypeWelcome),
//	)
package logger
