// Command lsc is a dev CLI for linkscrape maintenance and debugging tasks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/pkg/browser"

	"linkscrape/internal/config"
	"linkscrape/internal/debuglog"
	"linkscrape/internal/domtree/memdom"
	"linkscrape/internal/poll"
	"linkscrape/internal/scraper"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		if len(os.Args) < 3 {
			fmt.Println("Usage: lsc scrape <page.html>")
			os.Exit(1)
		}
		runScrape(os.Args[2])
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: lsc open <config|data>")
			os.Exit(1)
		}
		runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: lsc <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scrape <file>  Run extraction against a saved HTML page")
	fmt.Println("  open config    Open config file in default editor")
	fmt.Println("  open data      Open data directory in file explorer")
}

// runScrape extracts from a saved page snapshot. Useful for iterating on
// selectors without a live browser: save the page from devtools and rerun.
func runScrape(path string) {
	doc, err := memdom.ParseFile(path)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}
	doc.SetURL("file://" + path)

	dbg := debuglog.New(true)
	eng := scraper.New(dbg, poll.System, scraper.DefaultTiming())

	result, err := eng.Scrape(context.Background(), doc)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}

func runOpen(target string) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "data":
		path, err = config.DataDir()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Failed to resolve path: %v", err)
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
}
