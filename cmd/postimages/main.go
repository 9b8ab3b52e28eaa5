package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/premkondru/InstagramPostsScrapper/pkg/config"
	"github.com/premkondru/InstagramPostsScrapper/pkg/convert"
	"github.com/premkondru/InstagramPostsScrapper/pkg/fetch"
	"github.com/premkondru/InstagramPostsScrapper/pkg/organize"
	"github.com/premkondru/InstagramPostsScrapper/pkg/pipeline"
	"github.com/premkondru/InstagramPostsScrapper/pkg/table"
)

const version = "1.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "fetch":
		runFetch(os.Args[2:])
	case "organize":
		runOrganize(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("postimages %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `postimages - CSV-driven image downloader and organizer

Usage:
  postimages <command> [options]

Commands:
  fetch       Download/copy every image referenced by a CSV and write an
              updated CSV with an image_name column
  organize    Copy downloaded images into per-event folders
  validate    Validate configuration file
  version     Show version info

Run 'postimages <command> -h' for command-specific help.`)
}

// runFetch handles the fetch subcommand: the acquisition and normalization
// pipeline over one input CSV.
func runFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to optional YAML config file")
	inCSV := fs.String("in-csv", "", "Input CSV with a 'url' column (required)")
	outCSV := fs.String("out-csv", "", "Output CSV path (required)")
	imagesDir := fs.String("images-dir", config.DefaultImagesDir, "Directory to store images in")
	timeout := fs.Duration("timeout", config.DefaultTimeout, "Per-attempt HTTP timeout")
	retries := fs.Int("retries", config.DefaultRetries, "Total HTTP attempts per image")
	convertWebP := fs.String("convert-webp", config.DefaultConvertWebP, "Convert WEBP to this format (jpg/png). Empty to disable")
	convertHEIC := fs.String("convert-heic", config.DefaultConvertHEIC, "Convert HEIC/HEIF to this format (jpg/png). Empty to disable")
	forceFormat := fs.String("force-format", "", "Convert *all* images to this format (e.g. 'jpg'/'png'). Empty to disable")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: postimages fetch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  postimages fetch -in-csv posts.csv -out-csv posts_with_images.csv\n")
		fmt.Fprintf(os.Stderr, "  postimages fetch -in-csv posts.csv -out-csv out.csv -force-format png\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Explicitly set flags override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in-csv":
			cfg.InputCSV = *inCSV
		case "out-csv":
			cfg.OutputCSV = *outCSV
		case "images-dir":
			cfg.ImagesDir = *imagesDir
		case "timeout":
			cfg.Timeout = *timeout
		case "retries":
			cfg.Retries = *retries
		case "convert-webp":
			cfg.ConvertWebP = *convertWebP
		case "convert-heic":
			cfg.ConvertHEIC = *convertHEIC
		case "force-format":
			cfg.ForceFormat = *forceFormat
		}
	})

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Fatal startup conditions: nothing is processed unless the input table
	// is readable and the images directory exists.
	if cfg.InputCSV == "" || cfg.OutputCSV == "" {
		fmt.Fprintln(os.Stderr, "Error: -in-csv and -out-csv are required")
		fs.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.InputCSV); err != nil {
		log.Fatalf("Input CSV not found: %s", cfg.InputCSV)
	}
	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		log.Fatalf("Cannot create images directory %s: %v", cfg.ImagesDir, err)
	}

	tbl, err := table.Read(cfg.InputCSV)
	if err != nil {
		log.Fatalf("Failed to read input CSV: %v", err)
	}

	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, cfg, log)
	store := fetch.NewStore(cfg.ImagesDir, fetcher, log)
	normalizer := convert.NewNormalizer(convert.Policy{
		WebPTarget: cfg.ConvertWebP,
		HEICTarget: cfg.ConvertHEIC,
		Force:      cfg.ForceFormat,
	}, log)
	if cfg.ConvertHEIC != "" && !convert.HEIFSupported() {
		log.Warn("HEIC conversion configured but HEIF decoding is not built in (build tag 'heif'); HEIC files will be left unchanged")
	}

	p := pipeline.New(store, normalizer, log)
	summary, err := p.Run(context.Background(), tbl)
	if err != nil {
		log.Fatalf("Pipeline aborted: %v", err)
	}

	if err := tbl.Write(cfg.OutputCSV); err != nil {
		log.Fatalf("Failed to write output CSV: %v", err)
	}

	fmt.Printf("Saved images to: %s\n", cfg.ImagesDir)
	fmt.Printf("Wrote updated CSV: %s\n", cfg.OutputCSV)
	fmt.Printf("Records: %d total, %d stored, %d missing, %d failed\n",
		summary.Total, summary.Succeeded(), summary.Missing, summary.Failed)
}

// runOrganize handles the organize subcommand.
func runOrganize(args []string) {
	fs := flag.NewFlagSet("organize", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to optional YAML config file")
	csvPath := fs.String("csv", "", "CSV with 'image' and 'event' columns (required)")
	imagesDir := fs.String("images-dir", config.DefaultImagesDir, "Folder where source images live")
	eventsDir := fs.String("events-dir", config.DefaultEventsDir, "Destination root folder")
	dryRun := fs.Bool("dry-run", false, "Print actions without copying")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: postimages organize [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "images-dir":
			cfg.ImagesDir = *imagesDir
		case "events-dir":
			cfg.EventsDir = *eventsDir
		}
	})
	if warnings, err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	} else {
		for _, w := range warnings {
			log.Warn(w)
		}
	}

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -csv is required")
		fs.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(*csvPath); err != nil {
		log.Fatalf("CSV not found: %s", *csvPath)
	}
	if fi, err := os.Stat(cfg.ImagesDir); err != nil || !fi.IsDir() {
		log.Fatalf("Images directory not found: %s", cfg.ImagesDir)
	}

	tbl, err := table.Read(*csvPath)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	org := &organize.Organizer{
		ImagesDir: cfg.ImagesDir,
		EventsDir: cfg.EventsDir,
		DryRun:    *dryRun,
		Log:       log,
	}
	summary, err := org.Run(tbl)
	if err != nil {
		log.Fatalf("Organize aborted: %v", err)
	}

	absEvents, _ := filepath.Abs(cfg.EventsDir)
	fmt.Println("\n--- Summary ---")
	fmt.Printf("Copied:  %d\n", summary.Copied)
	fmt.Printf("Missing: %d\n", summary.Missing)
	fmt.Printf("Events root: %s\n", absEvents)
}

// runValidate handles the validate subcommand.
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: postimages validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK: configuration is valid")
	return 0
}

// loadConfig loads the optional YAML config file; an empty path yields the
// built-in defaults.
func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		return config.NewDefault(), nil
	}
	return config.Load(path)
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info'", logLevelStr)
	} else {
		log.SetLevel(level)
	}
	return log
}
