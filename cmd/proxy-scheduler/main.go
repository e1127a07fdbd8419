package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gogo/protobuf/proto"
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/mesos/mesos-go/api/v0/mesosutil"
	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/mesosproxy/scheduler/config"
	"github.com/mesosproxy/scheduler/decision"
	"github.com/mesosproxy/scheduler/scheduler"
	mesosdriver "github.com/mesosproxy/scheduler/scheduler/drivers/mesos"
)

func setupLogging(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Errorf("Received unknown log level %s, staying on info", level)
		return
	}
	log.SetLevel(parsed)
}

func main() {
	app := cli.NewApp()
	app.Name = "proxy-scheduler"
	app.Usage = "Mesos framework proxying placement decisions to an HTTP service"
	app.ArgsUsage = "master_host:master_port"
	// avoid os.Exit as much as possible to let deferred functions run
	defer time.Sleep(1 * time.Second)

	cfg, cfgFlags := config.NewConfig()
	app.Flags = cfgFlags
	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.NewExitError(fmt.Sprintf("Usage: %s master_host:master_port", app.Name), 1)
		}
		return mainWithError(c.Args().First(), cfg)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mainWithError(master string, cfg *config.Config) error {
	defer log.Info("proxy scheduler terminated")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupLogging(cfg.LogLevel)

	executorCommand, err := filepath.Abs(cfg.ExecutorCommand)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Cannot resolve executor command: %v", err), 1)
	}
	executor := mesosutil.NewExecutorInfo(
		mesosutil.NewExecutorID(cfg.ExecutorID),
		mesosutil.NewCommandInfo(executorCommand),
	)
	executor.Name = proto.String(cfg.ExecutorName)
	executor.Source = proto.String(cfg.ExecutorSource)

	framework := &mesos.FrameworkInfo{
		User:      proto.String(cfg.FrameworkUser),
		Name:      proto.String(cfg.FrameworkName),
		Principal: proto.String(cfg.FrameworkPrincipal),
	}

	client, err := decision.NewClient(cfg.DecisionServiceURL, cfg.DecisionTimeout)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Cannot create decision client: %v", err), 1)
	}

	state := scheduler.NewState()
	core := scheduler.New(ctx, state, client, executor, scheduler.Options{
		DecisionTimeout:      cfg.DecisionTimeout,
		MaxInflightDecisions: cfg.DecisionInflight,
	})

	if cfg.StatusListener != "" {
		go runStatusServer(cfg.StatusListener, state)
	}

	driver, err := mesosdriver.New(core, framework, master)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Unable to create the Mesos driver: %v", err), 1)
	}

	go handleTerminationSignals(driver)

	clean, err := driver.Run()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Mesos driver failed: %v", err), 1)
	}
	if !clean {
		return cli.NewExitError("Mesos driver did not stop cleanly", 1)
	}
	return nil
}

func runStatusServer(address string, state *scheduler.State) {
	log.Info("Status endpoint listening on ", address)
	if err := http.ListenAndServe(address, scheduler.NewStatusHandler(state)); err != nil {
		log.Error("Status endpoint failed: ", err)
	}
}

func handleTerminationSignals(driver *mesosdriver.Driver) {
	term := make(chan os.Signal, 1) // buffered so we don't miss a signal
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
	for termSig := range term {
		log.Infof(
			"Received termination signal %s, attempting to gracefully shutdown the scheduler...",
			termSig.String(),
		)
		if err := driver.Stop(); err != nil {
			log.Error(err)
		}
	}
}
