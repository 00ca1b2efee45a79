package heartbeat

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger periodically issues a GET against a target URL. It keeps
// free-tier hosting from putting the service to sleep between requests.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *zap.Logger
}

func New(url string, interval time.Duration, log *zap.Logger) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run pings the target until the context is cancelled. Intended to be
// launched in its own goroutine.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("heartbeat started",
		zap.String("url", p.url),
		zap.Duration("interval", p.interval))

	for {
		select {
		case <-ctx.Done():
			p.log.Info("heartbeat stopped")
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Error("failed to build heartbeat request", zap.Error(err))
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("heartbeat ping failed", zap.Error(err))
		return
	}
	resp.Body.Close()

	p.log.Debug("heartbeat ping succeeded", zap.Int("status", resp.StatusCode))
}
