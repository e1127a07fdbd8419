package config

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

const (
	defaultDecisionServiceURL = "http://localhost:5000/"
	defaultDecisionTimeout    = 10 * time.Second
	defaultDecisionInflight   = 8
	defaultExecutorCommand    = "./executor.py"
)

// Config is the proxy scheduler configuration.
type Config struct {
	// LogLevel is the logrus level name.
	LogLevel string
	// DecisionServiceURL is the base URL offers are POSTed to.
	DecisionServiceURL string
	// DecisionTimeout bounds a single placement request.
	DecisionTimeout time.Duration
	// DecisionInflight caps concurrent placement requests.
	DecisionInflight int64
	// ExecutorID and ExecutorCommand describe the single framework
	// executor every task runs under.
	ExecutorID      string
	ExecutorCommand string
	ExecutorName    string
	ExecutorSource  string
	// FrameworkUser is the unix user tasks run as; empty lets Mesos
	// fill in the current user.
	FrameworkUser      string
	FrameworkName      string
	FrameworkPrincipal string
	// StatusListener is the address of the operational HTTP endpoint;
	// empty disables it.
	StatusListener string
}

// NewConfig generates a configuration, with a set of flags tied to it.
func NewConfig() (*Config, []cli.Flag) {
	cfg := &Config{}
	flags := []cli.Flag{
		cli.StringFlag{
			Name:        "scheduler.logLevel",
			Value:       "info",
			Destination: &cfg.LogLevel,
		},
		cli.StringFlag{
			Name:        "decision.url",
			Value:       defaultDecisionServiceURL,
			Usage:       "base URL of the placement decision service",
			Destination: &cfg.DecisionServiceURL,
		},
		cli.DurationFlag{
			Name:        "decision.timeout",
			Value:       defaultDecisionTimeout,
			Destination: &cfg.DecisionTimeout,
		},
		cli.Int64Flag{
			Name:        "decision.concurrency",
			Value:       defaultDecisionInflight,
			Usage:       "maximum placement requests in flight at once",
			Destination: &cfg.DecisionInflight,
		},
		cli.StringFlag{
			Name:        "executor.id",
			Value:       "default",
			Destination: &cfg.ExecutorID,
		},
		cli.StringFlag{
			Name:        "executor.command",
			Value:       defaultExecutorCommand,
			Usage:       "path of the executor binary, resolved to an absolute path at startup",
			Destination: &cfg.ExecutorCommand,
		},
		cli.StringFlag{
			Name:        "executor.name",
			Value:       "HTTP Proxy Executor",
			Destination: &cfg.ExecutorName,
		},
		cli.StringFlag{
			Name:        "executor.source",
			Value:       "http_proxy",
			Destination: &cfg.ExecutorSource,
		},
		cli.StringFlag{
			Name:        "framework.user",
			Value:       "",
			Destination: &cfg.FrameworkUser,
		},
		cli.StringFlag{
			Name:        "framework.name",
			Value:       "HTTP Proxy Framework",
			Destination: &cfg.FrameworkName,
		},
		cli.StringFlag{
			Name:        "framework.principal",
			Value:       "http-proxy",
			Destination: &cfg.FrameworkPrincipal,
		},
		cli.StringFlag{
			Name:        "status.listener",
			Usage:       "address for the status HTTP endpoint, empty to disable",
			Destination: &cfg.StatusListener,
		},
	}
	return cfg, flags
}

// GenerateConfiguration is only meant to validate the behaviour of parsing command line arguments
func GenerateConfiguration(args []string) (*Config, error) {
	cfg, flags := NewConfig()

	app := cli.NewApp()
	app.Flags = flags
	app.Action = func(c *cli.Context) error {
		return nil
	}
	if args == nil {
		args = []string{}
	}

	args = append([]string{"fakename"}, args...)

	return cfg, app.Run(args)
}
