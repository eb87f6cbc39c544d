package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/codec"
	"github.com/cognicore/loredb/pkg/lore/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (required)")
		prefix     = flag.String("prefix", "", "Path prefix to inspect (default: database root)")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
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

	root := *prefix
	if root == "" {
		root = cfg.Database.Root
	}

	paths, err := blobs.List(ctx, blob.Path(root))
	if err != nil {
		log.Fatal("Failed to list tables:", err)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, p := range paths {
		data, ok, err := blobs.Load(ctx, p)
		if err != nil {
			log.Fatalf("Load %s: %v", p, err)
		}
		if !ok {
			continue
		}
		table, err := codec.DecodeTable(data)
		if err != nil {
			log.Fatalf("Decode %s: %v", p, err)
		}

		fmt.Println(p)
		lines := make([]string, 0, len(table))
		for target, count := range table {
			lines = append(lines, fmt.Sprintf("  %s: %d", target, count))
		}
		sort.Strings(lines)
		for _, l := range lines {
			fmt.Println(l)
		}
	}

	log.Printf("%d tables", len(paths))
}
