package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/envsetup"
	"github.com/magsasa-card/opsctl/internal/logging"
	"github.com/magsasa-card/opsctl/internal/tools"
)

const usage = `usage: envctl <development|staging|production> [flags]

flags:
  --clean     remove the virtualenv and build artifacts before setup
  --no-venv   skip virtualenv creation
  --no-deps   skip dependency installation
  --no-db     skip database initialization
  --ssh-host  run setup commands on a remote host instead of locally
  --ssh-user  remote user for --ssh-host
  --ssh-key   private key path for --ssh-host
  --ssh-port  remote port for --ssh-host (default 22)
`

func main() {
	os.Exit(run())
}

func run() int {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
	if args[0] == "-h" || args[0] == "--help" {
		fmt.Print(usage)
		return 0
	}
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(os.Stderr, "envctl: environment argument must come first\n%s", usage)
		return 1
	}

	fs := flag.NewFlagSet("envctl", flag.ContinueOnError)
	var (
		clean   = fs.Bool("clean", false, "remove the virtualenv and build artifacts before setup")
		noVenv  = fs.Bool("no-venv", false, "skip virtualenv creation")
		noDeps  = fs.Bool("no-deps", false, "skip dependency installation")
		noDB    = fs.Bool("no-db", false, "skip database initialization")
		sshHost = fs.String("ssh-host", "", "run setup commands on a remote host")
		sshUser = fs.String("ssh-user", "", "remote user for --ssh-host")
		sshKey  = fs.String("ssh-key", "", "private key path for --ssh-host")
		sshPort = fs.String("ssh-port", "", "remote port for --ssh-host")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	logging.ConfigureRuntime()

	env, err := envsetup.ParseEnvironment(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "envctl: %v\n", err)
		return 1
	}

	opts := envsetup.Options{
		Clean:        *clean,
		SkipVenv:     *noVenv,
		SkipDeps:     *noDeps,
		SkipDB:       *noDB,
		DatabasePath: config.ResolveDatabasePath("data/platform.db"),
	}
	if *sshHost != "" {
		opts.Runner = tools.SSHRunner{
			Host:    *sshHost,
			Port:    *sshPort,
			User:    *sshUser,
			KeyPath: *sshKey,
			Timeout: 30 * time.Second,
		}
	}
	if err := envsetup.Run(env, opts); err != nil {
		fmt.Fprintf(os.Stderr, "envctl: %v\n", err)
		return 1
	}
	fmt.Printf("%s environment ready\n", env)
	return 0
}
