// Package httpserver runs the API's http.Server with graceful shutdown and
// serves liveness and readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns when ctx is cancelled, on SIGINT or SIGTERM, or after Shutdown.
// Listen failures wrap ErrStart and shutdown failures wrap ErrShutdown.
package httpserver
