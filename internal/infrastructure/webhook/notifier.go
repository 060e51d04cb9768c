package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config points the notifier at the frontend.
type Config struct {
	FrontendURL string
	Secret      string
	Timeout     time.Duration
}

// Notifier posts revalidation requests to the frontend. Delivery is best-effort:
// each call runs in its own goroutine with a short timeout, failures are logged
// and never retried.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewNotifier builds a notifier. A nil client gets one with cfg.Timeout.
func NewNotifier(cfg Config, client *http.Client, logger *logrus.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Notifier{cfg: cfg, client: client, logger: logger}
}

// Enabled reports whether both the frontend URL and secret are configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.FrontendURL != "" && n.cfg.Secret != ""
}

// Notify implements ports.RevalidationNotifier.
func (n *Notifier) Notify(req revalidation.Request) {
	if !n.Enabled() {
		if n.logger != nil {
			n.logger.Debug("revalidation webhook not configured; skipping")
		}
		return
	}
	if !req.All && len(req.Paths) == 0 {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		defer cancel()
		if err := n.send(ctx, req); err != nil && n.logger != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{"all": req.All, "paths": req.Paths}).Warn("revalidation webhook failed")
		}
	}()
}

// Wait blocks until in-flight deliveries finish. Short-lived processes call it before exiting.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(ctx context.Context, req revalidation.Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode revalidation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(n.cfg.FrontendURL), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build revalidation request: %w", err)
	}
	deliveryID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(revalidation.SecretHeader, n.cfg.Secret)
	httpReq.Header.Set("X-Request-ID", deliveryID)

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("revalidation delivery %s: %w", deliveryID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("revalidation delivery %s: frontend answered %d", deliveryID, resp.StatusCode)
	}
	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{"delivery_id": deliveryID, "all": req.All, "paths": req.Paths}).Debug("revalidation webhook delivered")
	}
	return nil
}

// Endpoint joins the frontend base URL and the webhook path.
func Endpoint(frontendURL string) string {
	return strings.TrimRight(frontendURL, "/") + "/" + revalidation.Endpoint
}
