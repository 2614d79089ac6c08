package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/lnconsole/console"
	"github.com/the-lightning-land/lnconsole/input"
	"github.com/the-lightning-land/lnconsole/node"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// Date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// consoleMain is the true entry point for lnconsole. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func consoleMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Settings may also come from a .env file in the working directory
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("Could not load .env file: %v", err)
	}

	// Load CLI configuration and defaults
	cfg, err := loadConfig(os.Args[1:])
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the console
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	network := node.Network(cfg.Network)

	params, err := network.Params()
	if err != nil {
		return errors.Errorf("Unknown network: %v", err)
	}

	sessionDefaults := cfg.sessionDefaults()

	connector := node.NewLndConnector(&node.LndConnectorConfig{
		Host:        sessionDefaults.Host,
		TLSCertPath: sessionDefaults.TLSCertPath,
		Logger:      log.WithField("system", "node"),
	})

	log.Infof("Created lnd connector for %v.", sessionDefaults.Host)

	c := console.New(&console.Config{
		Connector:             connector,
		Network:               network,
		Environment:           node.Environment(cfg.Environment),
		Settings:              cfg.settings(),
		ConfigureSession:      cfg.applyLnd,
		Parser:                input.NewParser(params),
		In:                    os.Stdin,
		Out:                   os.Stdout,
		Logger:                log.WithField("system", "console"),
		InvoiceAmountSat:      cfg.InvoiceAmount,
		InvoiceMemo:           cfg.InvoiceMemo,
		AbortOnPaymentFailure: cfg.AbortOnPaymentFailure,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping console...")
		cancel()
	}()

	// blocks until the input ends or the console is interrupted
	return c.Run(ctx)
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := consoleMain(); err != nil {
		log.WithError(err).Println("Failed running lnconsole.")
		os.Exit(1)
	}
}
