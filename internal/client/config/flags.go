package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
)

// parseFlags populates Config from the short command-line flags listed in
// the package documentation. Only those flags are taken from os.Args, so
// other layers may define their own.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-i", "-w", "-t", "-d", "-z"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server HTTP API")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the gRPC health endpoint")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.IntVar(&cfg.Parallelism, "w", cfg.Parallelism, "chunks in flight per transfer")
	httpTimeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP request timeout (in seconds)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local metadata database path")
	fs.StringVar(&cfg.DropDir, "z", cfg.DropDir, "drop folder to watch")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
