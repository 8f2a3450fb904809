package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"divergent/wxpatch/pkg/backoff"

	"github.com/rs/zerolog/log"
)

// waitForHealth polls the deployed backend's /health endpoint until it
// answers ok or ctx expires. The hosting platform takes anywhere from
// seconds to minutes to redeploy after a push, so failures back off
// instead of hammering, but only the context ends the wait.
func waitForHealth(ctx context.Context, url string, b *backoff.Backoff) error {
	client := &http.Client{Timeout: 20 * time.Second}
	for {
		err := b.Sleep(ctx)
		if err != nil {
			return fmt.Errorf("gave up waiting for %s after %d attempts: %w", url, b.Attempts(), err)
		}
		ok, err := healthOk(ctx, client, url)
		if err != nil {
			log.Debug().Err(err).Msgf("health check attempt %d", b.Attempts())
			b.Failure()
			continue
		}
		if !ok {
			log.Debug().Msgf("health check attempt %d: not ok yet", b.Attempts())
			b.Failure()
			continue
		}
		return nil
	}
}

func healthOk(ctx context.Context, client *http.Client, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "wxpatch/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to do the request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %w", err)
	}
	log.Trace().Msgf("http response %s, %d bytes body", resp.Status, len(body))
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		Status string `json:"status"`
	}
	err = json.Unmarshal(body, &health)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal health response: %w", err)
	}
	return health.Status == "ok", nil
}
