package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"exam-extract/internal/config"
	"exam-extract/internal/extractor"
	"exam-extract/internal/helper"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	dataRoot := flag.String("data", "", "Data root for json/ and images/ output (overrides config)")
	pdfDir := flag.String("pdf-dir", "", "Directory of input PDFs (overrides config)")
	filePath := flag.String("file", "", "Extract a single PDF instead of a directory")
	dryRun := flag.Bool("dry-run", false, "Extract and print questions, do not write files")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	runID, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating run id")
	}
	log.Logger = log.With().Str("run_id", runID).Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *dataRoot != "" {
		cfg.Paths.DataRoot = *dataRoot
	}
	if *pdfDir != "" {
		cfg.Paths.PDFDir = *pdfDir
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := extractor.New(cfg, *dryRun)

	if *filePath != "" {
		extractFile(ctx, ex, *filePath, *dryRun)
		return
	}

	summary, err := ex.RunDir(ctx, cfg.Paths.PDFDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction aborted")
	}
	log.Info().
		Int("documents", summary.Documents).
		Int("questions", summary.Questions).
		Int("diagrams", summary.Diagrams).
		Int("failed", len(summary.Failed)).
		Msg("Extraction finished")
	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}

func extractFile(ctx context.Context, ex *extractor.Extractor, path string, dryRun bool) {
	res, err := ex.ExtractDocument(ctx, path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Error extracting document")
	}
	if dryRun {
		helper.PrettyPrint(os.Stdout, res.Questions)
		return
	}
	log.Info().
		Str("json", res.Paths.JSON).
		Int("questions", len(res.Questions)).
		Int("diagrams", res.Diagrams).
		Msg("Extraction finished")
}
