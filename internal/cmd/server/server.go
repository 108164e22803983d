// Package server parses server command flags and starts the websocket API.
package server

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/mjguillemette/hollowroom/internal/platform/cmd"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/server"
)

// Config holds server command configuration.
type Config struct {
	Port      int    `env:"HOLLOWROOM_PORT" envDefault:"8080"`
	Addr      string `env:"HOLLOWROOM_ADDR"`
	RulesPath string `env:"HOLLOWROOM_RULES_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The server listen address (overrides -port)")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to a YAML rules preset (defaults built in)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the websocket game API service.
func Run(ctx context.Context, cfg Config) error {
	r := rules.Default()
	if cfg.RulesPath != "" {
		loaded, err := rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return err
		}
		r = loaded
	}

	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		srv, err := server.New(addr, r)
		if err != nil {
			return err
		}
		return srv.Serve(ctx)
	})
}
