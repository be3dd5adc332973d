// ABOUTME: Catalog maintenance tool
// ABOUTME: Lists and edits the local catalog database
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Watchbird-Live/watchbird-go/internal/catalog"
	"github.com/Watchbird-Live/watchbird-go/internal/config"
)

var (
	configPath = flag.String("config", "", "Config file path (default: per-user config dir)")
	dbPath     = flag.String("db", "", "Catalog database path (overrides config)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: watchbird-catalog [flags] <command>

Commands:
  list                         Show all catalog items
  add <id> <title> [desc] [url]  Add an item
  describe <id> <description>  Replace an item's description
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	path := *dbPath
	if path == "" {
		cfgPath := *configPath
		if cfgPath == "" {
			resolved, err := config.DefaultPath()
			if err != nil {
				log.Fatalf("resolve config path: %v", err)
			}
			cfgPath = resolved
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		path = cfg.Paths.CatalogDB
	}

	store, err := catalog.Open(path)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	switch args[0] {
	case "list":
		items, err := store.List(ctx)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, item := range items {
			fmt.Printf("%-24s %s\n", item.ID, item.Title)
			if item.Description != "" {
				fmt.Printf("%-24s   %s\n", "", item.Description)
			}
		}

	case "add":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		item := catalog.Item{ID: args[1], Title: args[2]}
		if len(args) > 3 {
			item.Description = args[3]
		}
		if len(args) > 4 {
			item.MediaURL = args[4]
		}
		if err := store.Seed(ctx, []catalog.Item{item}); err != nil {
			log.Fatalf("add: %v", err)
		}
		fmt.Printf("Added %s\n", item.ID)

	case "describe":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		if err := store.UpdateDescription(ctx, args[1], args[2]); err != nil {
			log.Fatalf("describe: %v", err)
		}
		fmt.Printf("Updated %s\n", args[1])

	default:
		usage()
		os.Exit(2)
	}
}
