// Command linkscrape runs the post-extraction daemon. It drives a Chrome
// tab over the DevTools protocol and answers controller messages on a
// local HTTP port.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"linkscrape/internal/config"
	"linkscrape/internal/debuglog"
	"linkscrape/internal/domtree/cdpdom"
	"linkscrape/internal/poll"
	"linkscrape/internal/scheduler"
	"linkscrape/internal/scraper"
	"linkscrape/internal/server"
	"linkscrape/internal/session"
	"linkscrape/internal/store"
	"linkscrape/internal/types"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load or create configuration
	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			// First run - create default config
			cfg = config.Default()
			if err := cfg.Save(); err != nil {
				log.Printf("Warning: could not save default config: %v", err)
			} else {
				path, _ := config.ConfigPath()
				log.Printf("Created default config at: %s", path)
			}
		} else {
			log.Printf("Warning: could not load config: %v (using defaults)", err)
			cfg = config.Default()
		}
	}

	// Settings store holds the flags that survive restarts
	dataDir, err := config.DataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	settings, err := store.New(filepath.Join(dataDir, "settings.db"))
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	defer settings.Close()

	debugEnabled, err := settings.GetBool(store.KeyDebugEnabled, false)
	if err != nil {
		log.Printf("Warning: could not read debug flag: %v", err)
	}
	dbg := debuglog.New(debugEnabled)

	// Attach to the user's browser when configured, otherwise launch one
	var sess *session.Session
	if cfg.Browser.RemoteURL != "" {
		sess, err = session.Attach(context.Background(), cfg.Browser.RemoteURL)
	} else {
		sess, err = session.Launch(context.Background(), cfg.Browser)
	}
	if err != nil {
		log.Fatalf("Failed to start browser session: %v", err)
	}
	defer sess.Close()

	eng := scraper.New(dbg, poll.System, timingFrom(cfg.Expansion))
	scrape := func(ctx context.Context) (*types.ScrapeResult, error) {
		doc := cdpdom.NewDocument(sess.Context(), cdpdom.WithLogf(dbg.Printf))
		return eng.Scrape(ctx, doc)
	}

	if cfg.Watch.Enabled {
		if err := startWatch(cfg.Watch, sess, scrape); err != nil {
			log.Fatalf("Failed to start watch mode: %v", err)
		}
	}

	srv := server.New(scrape, settings, dbg)
	log.Println("linkscrape starting...")
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// startWatch schedules a recurring scrape of a fixed post URL and prints
// each result to stdout as JSON.
func startWatch(w config.WatchConfig, sess *session.Session, scrape server.ScrapeFunc) error {
	if w.URL == "" {
		log.Println("Watch mode enabled but no URL configured; skipping")
		return nil
	}

	sched, err := scheduler.New(w.Timezone)
	if err != nil {
		return err
	}

	err = sched.AddJob("watch", w.Schedule, func(ctx context.Context) error {
		if err := sess.Navigate(w.URL); err != nil {
			return err
		}
		result, err := scrape(ctx)
		if err != nil {
			return err
		}
		out, err := json.Marshal(result)
		if err != nil {
			return err
		}
		os.Stdout.Write(append(out, '\n'))
		return nil
	})
	if err != nil {
		return err
	}

	sched.Start()
	return nil
}

func timingFrom(e config.ExpansionConfig) scraper.Timing {
	t := scraper.DefaultTiming()
	if e.SeeMoreWaitMs > 0 {
		t.SeeMoreWait = time.Duration(e.SeeMoreWaitMs) * time.Millisecond
	}
	if e.ClickDelayMs > 0 {
		t.ClickDelay = time.Duration(e.ClickDelayMs) * time.Millisecond
	}
	if e.CommentWaitMs > 0 {
		t.CommentWait = time.Duration(e.CommentWaitMs) * time.Millisecond
	}
	if e.PollIntervalMs > 0 {
		t.PollInterval = time.Duration(e.PollIntervalMs) * time.Millisecond
	}
	if e.MaxRounds > 0 {
		t.MaxRounds = e.MaxRounds
	}
	return t
}
