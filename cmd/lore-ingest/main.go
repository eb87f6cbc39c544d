package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/cognicore/loredb/pkg/lore"
	"github.com/cognicore/loredb/pkg/lore/config"
	"github.com/cognicore/loredb/pkg/lore/library"
	"github.com/cognicore/loredb/pkg/lore/model"
)

// record is one JSONL input line: an optional document ID plus the analyzed
// paragraphs. A missing ID mints a fresh one.
type record struct {
	ID         string            `json:"id"`
	Paragraphs []model.Paragraph `json:"paragraphs"`
}

func main() {
	var (
		configPath = flag.String("config", "", "Config file (required)")
		dataPath   = flag.String("data", "", "Input JSONL file (required)")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}
	if *dataPath == "" {
		log.Fatal("--data required")
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	blobs, err := cfg.Open(ctx)
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}

	engine := lore.New(lore.Options{
		Blobs:        blobs,
		DatabaseRoot: cfg.Database.Root,
		CacheSize:    cfg.Database.CacheSize,
		CacheTTL:     time.Duration(cfg.Database.CacheTTL),
		LibraryRoot:  cfg.Library.Root,
	})
	defer engine.Close()

	f, err := os.Open(*dataPath)
	if err != nil {
		log.Fatal("Failed to open data file:", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var count int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Fatalf("Line %d: %v", count+1, err)
		}

		var id library.ID
		if rec.ID == "" {
			id = library.NewID()
		} else {
			id, err = library.ParseID(rec.ID)
			if err != nil {
				log.Fatalf("Line %d: %v", count+1, err)
			}
		}

		doc := &model.Lore{Paragraphs: rec.Paragraphs}
		if err := engine.Put(ctx, id, doc); err != nil {
			log.Fatalf("Ingest %s: %v", id, err)
		}
		count++
		log.Printf("Ingested %s", id)
	}
	if err := scanner.Err(); err != nil {
		log.Fatal("Failed reading data file:", err)
	}

	log.Printf("Done: %d documents", count)
}
