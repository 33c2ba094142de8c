// Command ingest loads travel guides into the document store without going
// through the HTTP API.
//
//	ingest -name "Kyoto guide" -tags kyoto,kansai kyoto.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"tabi/cmd/fx/db_fx"
	"tabi/cmd/fx/document_fx"
	"tabi/cmd/fx/jobs_fx"
	"tabi/cmd/fx/llm_fx"
	"tabi/internal/config"
	"tabi/internal/services"
	"tabi/pkg/observability"
)

func main() {
	name := flag.String("name", "", "document name (defaults to the file name, max 64 characters)")
	tags := flag.String("tags", "", "comma separated tags")
	timeout := flag.Duration("timeout", 10*time.Minute, "timeout per document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-name name] [-tags a,b] file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *name != "" && flag.NArg() > 1 {
		log.Fatal().Msg("-name can only be used with a single file")
	}

	cfg := config.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if cfg.PostgresURL == "" {
		log.Fatal().Msg("POSTGRES_URL is required")
	}

	var documents services.DocumentServiceInterface
	app := fx.New(
		fx.Supply(cfg),
		fx.NopLogger,
		db_fx.Module,
		llm_fx.Module,
		jobs_fx.Module,
		document_fx.Module,
		fx.Populate(&documents),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("could not start")
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := ingest(documents, path, *name, splitTags(*tags), *timeout); err != nil {
			log.Error().Err(err).Str("file", path).Msg("ingestion failed")
			failed++
		}
	}

	stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := app.Stop(stopCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func ingest(documents services.DocumentServiceInterface, path, name string, tags []string, timeout time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if r := []rune(name); len(r) > 64 {
			name = string(r[:64])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	start := time.Now()
	doc, err := documents.IngestSync(ctx, name, filepath.Base(path), tags, f)
	if err != nil {
		return err
	}
	log.Info().
		Str("document_id", doc.ID).
		Str("name", doc.Name).
		Int("chunks", doc.ChunkCount).
		Dur("took", time.Since(start)).
		Msg("document ingested")
	return nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}
