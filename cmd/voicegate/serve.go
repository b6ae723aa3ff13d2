package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/api"
	"github.com/kbukum/voicegate/server"
)

func runServe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	fs.String("host", "127.0.0.1", "listen host")
	fs.Int("port", server.DefaultPort, "listen port, 0 picks a free port")
	fs.Bool("port-fallback", false, "bind a free port when the port is busy")
	fs.Bool("announce", false, `print "PORT <n>" on stdout once bound`)
	fs.Bool("preload", false, "load the model at startup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, &common, map[string]string{
		"host":          "server.host",
		"port":          "server.port",
		"port-fallback": "server.port_fallback",
		"announce":      "server.announce",
		"preload":       "transcription.preload",
	})
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, rt.app.Logger)
	srv.ApplyDefaults(cfg.Name, rt.app.Components.HealthAll, func() any {
		return rt.transcription.ModelInfo()
	})
	api.NewHandler(rt.transcription, cfg.API).Register(srv.Routers()...)

	if err := rt.app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return rt.app.Run(ctx)
}
