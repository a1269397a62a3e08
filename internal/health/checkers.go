package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/emiliovps/ventia/internal/catalog"
)

// Pinger ping-checks a database connection. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a Checker that pings the sales database.
func Database(p Pinger) Checker {
	return Checker{
		Name: "database",
		Check: func(ctx context.Context) error {
			return p.Ping(ctx)
		},
	}
}

// Catalog returns a Checker that verifies the product catalog answers
// queries. It lists a single product; an empty catalog is still healthy.
func Catalog(store catalog.Store) Checker {
	return Checker{
		Name: "catalog",
		Check: func(ctx context.Context) error {
			_, err := store.List(ctx, catalog.ListOptions{Limit: 1})
			return err
		},
	}
}

// SpeechEngine returns a Checker that probes a speech server endpoint
// (whisper-server, vosk-server behind an HTTP gateway, or piper) with a GET
// request. Any response, including an error status, counts as reachable;
// only transport failures mark the engine unhealthy.
func SpeechEngine(name, url string, client *http.Client) Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("reach %s: %w", url, err)
			}
			resp.Body.Close()
			return nil
		},
	}
}
