package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/deploy"
	"github.com/magsasa-card/opsctl/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dryRun     = flag.Bool("dry-run", false, "run every validation stage without pushing")
		force      = flag.Bool("force", false, "proceed even when the work tree is dirty")
		urlFlag    = flag.String("url", "", "deployment URL to poll after push (defaults to STAGING_URL)")
		configPath = flag.String("config", "", "optional TOML config file")
	)
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := config.DefaultDeployConfig()
	if *configPath != "" {
		loaded, err := config.LoadDeployConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "deployctl: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *urlFlag != "" {
		cfg.TargetURL = config.ResolveTargetURL(*urlFlag)
	}

	pipeline := deploy.NewPipeline(cfg, deploy.Deps{})
	report, err := pipeline.Run(context.Background(), deploy.Options{
		DryRun: *dryRun,
		Force:  *force,
	})

	for _, stage := range report.Stages {
		state := "ok"
		if stage.Skipped {
			state = "skipped"
		}
		fmt.Printf("  [%s] %-20s %s\n", state, stage.Name, stage.Detail)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "deployctl: %v\n", err)
		if errors.Is(err, deploy.ErrPushFailed) || errors.Is(err, deploy.ErrPostDeployUnhealthy) {
			return 2
		}
		return 1
	}
	if report.DryRun {
		fmt.Println("dry run complete, no push performed")
	} else {
		fmt.Printf("deployed branch %s\n", report.Branch)
	}
	return 0
}
