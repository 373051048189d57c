package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/robotalks/pnpfeeder/pkg/dispatch"
	"github.com/robotalks/pnpfeeder/pkg/env"
	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/framework"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/link"
	"github.com/robotalks/pnpfeeder/pkg/link/serial"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
	"github.com/robotalks/pnpfeeder/pkg/sim"
)

func main() {
	if err := env.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	conf := env.Default()
	if err := conf.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var showPorts bool
	cmd := &cobra.Command{
		Use:           "feederd",
		Short:         "Tape feeder controller speaking G-code",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			defer glog.Flush()
			if showPorts {
				return listPorts(os.Stdout, serial.ListPorts)
			}
			return run(conf)
		},
	}
	conf.SetupFlags(cmd.Flags())
	cmd.Flags().BoolVar(&showPorts, "list-ports", false, "List serial ports usable as link and exit")
	cmd.Flags().AddGoFlagSet(flag.CommandLine)
	// glog complains when the go flag set is never parsed.
	flag.CommandLine.Parse([]string{})

	if err := cmd.Execute(); err != nil {
		glog.Flush()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(conf *env.Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	store, err := conf.NewStore()
	if err != nil {
		return fmt.Errorf("create config store: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	acceptor, err := conf.NewAcceptor()
	if err != nil {
		return fmt.Errorf("create link: %w", err)
	}

	runner := framework.NewRunner().HandleSignals()

	clients := make([]*feeder.Client, conf.Feeders)
	for n := range clients {
		name := strconv.Itoa(n)
		ch := feeder.NewChannel()
		runner.Go(feeder.New(name, sim.NewServo(name), sim.NewInput(false), ch))
		clients[n] = feeder.NewClient(ch)
	}

	events := make(chan gcode.Event, link.EventQueueSize)
	session := link.NewSession(acceptor, events)
	session.Echo = conf.Echo
	session.LineCapacity = conf.LineBuffer

	dispatcher := dispatch.New(clients, store, session.Output)
	dispatcher.Banner = conf.Banner()
	runner.Go(framework.NamedRun("dispatcher", framework.RunFunc(func(ctx context.Context) error {
		dispatcher.LoadConfigs(ctx)
		return dispatcher.Run(ctx, events)
	})))
	runner.Go(session)
	if r, ok := acceptor.(framework.Runnable); ok {
		runner.Go(r)
	}
	if conf.MetricsAddr != "" {
		runner.Go(framework.NamedRun("metrics", metricsServer(conf.MetricsAddr)))
	}

	glog.Infof("%s started with %d feeders on %s", conf.Banner(), conf.Feeders, conf.LinkURL)
	return runner.Wait()
}

func metricsServer(addr string) framework.RunFunc {
	return func(ctx context.Context) error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		glog.Infof("metrics on %s/metrics", addr)
		return framework.RunWithContextCancel(ctx, func() {
			srv.Close()
		}, srv.ListenAndServe)
	}
}

func listPorts(w io.Writer, list func() ([]string, error)) error {
	ports, err := list()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	for _, port := range ports {
		fmt.Fprintf(w, "serial://%s\n", port)
	}
	return nil
}
