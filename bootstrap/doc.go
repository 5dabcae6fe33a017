// Package bootstrap runs the application lifecycle: validate config,
// initialize logging, start components, run hooks, wait for SIGINT/SIGTERM
// and shut down in reverse order within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	_ = app.RegisterComponent(poller)
//	_ = app.RegisterComponent(chatAdapter)
//	return app.Run(ctx)
package bootstrap
