package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/health"
	"github.com/magsasa-card/opsctl/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		urlFlag    = flag.String("url", "", "deployment URL to check (defaults to STAGING_URL)")
		timeout    = flag.Int("timeout", 0, "per-request timeout in seconds (default 30)")
		quiet      = flag.Bool("quiet", false, "print only the final classification")
		jsonOut    = flag.Bool("json", false, "print the full report as JSON")
		configPath = flag.String("config", "", "optional TOML config file")
	)
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := config.DefaultStatusConfig()
	if *configPath != "" {
		loaded, err := config.LoadStatusConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "statusctl: %v\n", err)
			return health.ClassUnknown.ExitCode()
		}
		cfg = loaded
	}
	if *urlFlag != "" {
		cfg.TargetURL = config.ResolveTargetURL(*urlFlag)
	}
	if *timeout > 0 {
		cfg.Timeout = time.Duration(*timeout) * time.Second
	}

	checker := health.NewChecker(health.CheckerConfig{
		Timeout:    cfg.Timeout,
		Attempts:   cfg.Attempts,
		RetryDelay: cfg.RetryDelay,
	})
	report := checker.Check(context.Background(), cfg.TargetURL)

	switch {
	case *jsonOut:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "statusctl: %v\n", err)
			return health.ClassUnknown.ExitCode()
		}
	case *quiet:
		fmt.Println(report.Class)
	default:
		printReport(report)
	}
	return report.Class.ExitCode()
}

func printReport(report health.Report) {
	fmt.Printf("target: %s\n", report.TargetURL)
	if report.Service != "" {
		fmt.Printf("service: %s (version %s)\n", report.Service, report.Version)
	}
	for _, probe := range report.Probes {
		mark := "ok"
		detail := probe.Detail
		if !probe.OK {
			mark = "fail"
			detail = probe.Error
		}
		fmt.Printf("  [%s] %-18s attempts=%d %s\n", mark, probe.Name, probe.Attempts, detail)
	}
	fmt.Printf("classification: %s\n", report.Class)
}
