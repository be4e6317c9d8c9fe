// record_fixture fetches one live source page, saves the raw HTML and prints
// what the parser made of it. Use it to refresh provider testdata.
//
// With --replay it skips the network and runs the parser over a page that was
// captured earlier, read from the capture storage named in the config file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matthewgall/pricer/internal/capture"
	"github.com/matthewgall/pricer/internal/config"
	"github.com/matthewgall/pricer/internal/providers/ebaysold"
	"github.com/matthewgall/pricer/internal/providers/pricecharting"
	"github.com/matthewgall/pricer/internal/scrape"
)

type fetcher interface {
	pricecharting.Fetcher
	ebaysold.Fetcher
}

func main() {
	source := flag.String("source", "pricecharting", "Source to fetch (pricecharting, ebay)")
	query := flag.String("query", "", "Search query")
	platform := flag.String("platform", "", "Platform code")
	outDir := flag.String("out", "testdata/captured", "Directory for captured pages")
	bypass := flag.Bool("bypass-cloudflare", false, "Use the Cloudflare bypass transport")
	configPath := flag.String("config", "config.yaml", "Config file naming the capture storage for --replay")
	replay := flag.String("replay", "", "Capture key to parse instead of fetching live")
	discard := flag.Bool("discard", false, "Delete the replayed capture after a successful parse")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		pages    fetcher
		replayer *capture.Replayer
	)
	if key := strings.TrimSpace(*replay); key != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fail(err)
		}
		storage, err := capture.New(ctx, cfg.Capture)
		if err != nil {
			fail(err)
		}
		replayer = capture.NewReplayer(storage, key)
		pages = replayer
	} else {
		if strings.TrimSpace(*query) == "" {
			fail(fmt.Errorf("query is required"))
		}
		pages = scrape.New(scrape.Options{
			BypassCloudflare: *bypass,
			Recorder:         capture.NewRecorder(capture.NewLocal(*outDir)),
		})
	}

	result, err := run(ctx, pages, *source, *query, *platform)
	if err != nil {
		fail(err)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(output))

	if replayer != nil && *discard {
		if err := replayer.Discard(ctx); err != nil {
			fail(err)
		}
	}
}

func run(ctx context.Context, f fetcher, source, query, platform string) (interface{}, error) {
	switch strings.ToLower(source) {
	case "pricecharting":
		client, err := pricecharting.New(f, "")
		if err != nil {
			return nil, err
		}
		return client.FetchCatalogPrice(ctx, query, platform), nil
	case "ebay":
		client, err := ebaysold.New(f, "")
		if err != nil {
			return nil, err
		}
		return client.FetchSoldListings(ctx, query, platform), nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
