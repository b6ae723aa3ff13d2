// Package bootstrap runs a voicegate binary through a uniform lifecycle:
// validated config, logger and telemetry setup, component start in
// registration order, hooks, a startup summary, and graceful shutdown on
// SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	_ = app.RegisterComponent(transcriptionService)
//	_ = app.RegisterComponent(server.NewComponent(srv))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// RunTask runs finite work (a recording, a file transcription, an inbox
// watcher) with the same infrastructure.
package bootstrap
