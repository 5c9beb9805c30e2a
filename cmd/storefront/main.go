package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	etagcache "github.com/tranhuy105/KTPM-20242-sub001"
	"github.com/tranhuy105/KTPM-20242-sub001/catalog"
	"github.com/tranhuy105/KTPM-20242-sub001/pkg/fingerprint"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	portFlag           int
	dbFilenameFlag     string
	configFilenameFlag string
	hashFlag           string
	maxBodyFlag        int
	weakFlag           bool
	ifMatchFlag        bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&dbFilenameFlag, "db", "catalog.db", "Catalog DB file name (use 'memory' for in-memory db)")
	flag.StringVar(&configFilenameFlag, "config", "", "YAML config file (flags override it)")
	flag.StringVar(&hashFlag, "hash", "sha256", "ETag hash function: sha256 or xxhash")
	flag.IntVar(&maxBodyFlag, "max-body", etagcache.DefaultMaxBodySize, "Largest response body to tag, in bytes (negative for no limit)")
	flag.BoolVar(&weakFlag, "weak", false, "Generate weak ETags (If-Match on PUT then always fails, it needs a strong tag)")
	flag.BoolVar(&ifMatchFlag, "if-match", false, "Answer 412 to reads with a failing If-Match")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	config := defaultConfig()
	if configFilenameFlag != "" {
		var err error
		if config, err = getConfig(configFilenameFlag); err != nil {
			log.Fatal().Err(err).Str("file", configFilenameFlag).Msg("Could not read config")
		}
	}
	applyFlags(&config)
	warnWeakIfMatch(config, &log.Logger)

	hasher, err := fingerprint.New(fingerprint.Algorithm(config.Hash), config.TagLength)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid hash")
	}

	// set up sqlite memory provider
	dbFilename := config.DB
	if dbFilename == "memory" {
		dbFilename = "file::memory:?cache=shared"
	}
	products, err := catalog.NewSQLiteCatalog(dbFilename)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open catalog")
	}
	defer products.Close()
	if err := products.Seed(context.Background(), seedProducts); err != nil {
		log.Fatal().Err(err).Msg("Could not seed catalog")
	}

	validator := etagcache.New(etagcache.Config{
		Logger:         &log.Logger,
		Fingerprinter:  hasher,
		MaxBodySize:    config.MaxBodySize,
		Rules:          config.Rules,
		Weak:           config.Weak,
		EnforceIfMatch: config.EnforceIfMatch,
		Disabled:       config.Disabled,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           newRouter(products, validator, hasher, log.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Msgf("Serving storefront on port %v (hash %s)", config.Port, hasher.Algorithm())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// applyFlags overrides config with the flags given on the command line.
func applyFlags(config *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			config.Port = portFlag
		case "db":
			config.DB = dbFilenameFlag
		case "hash":
			config.Hash = hashFlag
		case "max-body":
			config.MaxBodySize = maxBodyFlag
		case "weak":
			config.Weak = weakFlag
		case "if-match":
			config.EnforceIfMatch = ifMatchFlag
		}
	})
}

// warnWeakIfMatch logs that conditional updates cannot succeed with weak
// tags: If-Match compares strongly and clients only see W/ tags.
func warnWeakIfMatch(config Config, logger *zerolog.Logger) {
	if config.Weak {
		logger.Warn().Msg("Weak ETags enabled, PUT requests with If-Match will always get 412")
	}
}

var seedProducts = []catalog.Product{
	{ID: "6f1c2a4e-3b0d-4c55-9a7e-2f8d1b9c0a11", Name: "Espresso cup", PriceCents: 850, Stock: 40},
	{ID: "0b7e9d32-5a1f-4e8c-b6d4-7c3a2e1f9b22", Name: "Pour-over kettle", Description: "Gooseneck, 1 l", PriceCents: 4900, Stock: 12},
	{ID: "c94a8e17-2d6b-4f3a-8e05-1a9b7c6d5e33", Name: "Travel mug", PriceCents: 2200, Stock: 25},
}
