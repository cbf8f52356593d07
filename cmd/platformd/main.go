package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/observability"
	"github.com/magsasa-card/opsctl/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	flag.Parse()

	observability.InitLogger("platformd")
	observability.RegisterMetrics()

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "platformd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := server.New(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "platformd: %v\n", err)
		os.Exit(1)
	}
}
