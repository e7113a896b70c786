package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/ersatz/pkg/config"
	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/logging"
	"github.com/getmockd/ersatz/pkg/request"
	"github.com/getmockd/ersatz/pkg/server"
)

type serveOptions struct {
	configs            []string
	host               string
	port               int
	https              bool
	h2c                bool
	logLevel           string
	logFormat          string
	reportToConsole    bool
	logResponseContent bool
	maxBodySize        int64
	urlFile            string
	verify             bool
	verifyTimeout      time.Duration
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve expectation files until interrupted",
		Example: `  ersatz serve --config mocks.yaml
  ersatz serve -c 'mocks/**/*.yaml' --port 9090 --report-to-console
  ersatz serve -c mocks.yaml --https --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.configs, "config", "c", nil, "expectation file or doublestar glob (repeatable)")
	f.StringVar(&opts.host, "host", "0.0.0.0", "interface to listen on")
	f.IntVarP(&opts.port, "port", "p", 8080, "port to listen on (0 picks a free port)")
	f.BoolVar(&opts.https, "https", false, "serve HTTPS with a generated self-signed certificate")
	f.BoolVar(&opts.h2c, "h2c", false, "accept HTTP/2 without TLS")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	f.BoolVar(&opts.reportToConsole, "report-to-console", false, "print unmatched request reports to stdout")
	f.BoolVar(&opts.logResponseContent, "log-response-content", false, "log text response bodies at debug level")
	f.Int64Var(&opts.maxBodySize, "max-body-size", request.DefaultMaxBodySize, "maximum request body size in bytes")
	f.StringVar(&opts.urlFile, "url-file", "", "write the server URL to this file once listening")
	f.BoolVar(&opts.verify, "verify", false, "verify call counts on shutdown and fail when unmet")
	f.DurationVar(&opts.verifyTimeout, "verify-timeout", expect.DefaultVerifyTimeout, "how long verification waits")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(opts.logLevel)
	logCfg.Format = logging.ParseFormat(opts.logFormat)
	logCfg.Output = cmd.ErrOrStderr()
	log := logging.New(logCfg)

	coll, err := config.Load(opts.configs...)
	if err != nil {
		return err
	}

	srvOpts := []server.Option{
		server.WithHost(opts.host),
		server.WithPort(opts.port),
		server.WithLogger(log),
		server.WithMaxBodySize(opts.maxBodySize),
	}
	if opts.https {
		srvOpts = append(srvOpts, server.WithHTTPS())
	}
	if opts.h2c {
		srvOpts = append(srvOpts, server.WithH2C())
	}
	if opts.reportToConsole {
		srvOpts = append(srvOpts, server.WithReportToConsole(cmd.OutOrStdout()))
	}
	if opts.logResponseContent {
		srvOpts = append(srvOpts, server.WithLogResponseContent())
	}

	srv := server.New(srvOpts...)
	if err := config.Apply(coll, srv.Expectations); err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ersatz listening on %s (%d expectation(s) from %d file(s))\n", srv.URL(), coll.Count(), len(coll.Sources))
	if opts.urlFile != "" {
		if err := os.WriteFile(opts.urlFile, []byte(srv.URL()), 0o644); err != nil {
			_ = srv.Close()
			return fmt.Errorf("writing URL file: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	closeErr := srv.Close()
	if opts.verify {
		verifyCtx, cancel := context.WithTimeout(context.Background(), opts.verifyTimeout)
		defer cancel()
		if err := srv.VerifyContext(verifyCtx); err != nil {
			return err
		}
		fmt.Fprintln(out, "all expectations verified")
	}
	return closeErr
}
