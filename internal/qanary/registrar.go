package qanary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agenthands/districtlinker/internal/logger"
)

// Registration is the instance description sent to the pipeline's Spring
// Boot Admin server.
type Registration struct {
	Name          string            `json:"name"`
	ServiceURL    string            `json:"serviceUrl"`
	HealthURL     string            `json:"healthUrl"`
	ManagementURL string            `json:"managementUrl"`
	Metadata      map[string]string `json:"metadata"`
}

func NewRegistration(name, serviceURL string, metadata map[string]string) Registration {
	base := strings.TrimRight(serviceURL, "/")
	return Registration{
		Name:          name,
		ServiceURL:    base,
		HealthURL:     base + "/health",
		ManagementURL: base,
		Metadata:      metadata,
	}
}

// Registrar keeps the component registered with the admin server so the
// pipeline can discover it.
type Registrar struct {
	adminURL   string
	username   string
	password   string
	interval   time.Duration
	reg        Registration
	httpClient *http.Client
	log        *logger.Logger
}

func NewRegistrar(adminURL, username, password string, interval time.Duration, reg Registration, log *logger.Logger) *Registrar {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Registrar{
		adminURL:   strings.TrimRight(adminURL, "/"),
		username:   username,
		password:   password,
		interval:   interval,
		reg:        reg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.OrNop(log),
	}
}

// Register posts the registration once and returns the instance id.
func (r *Registrar) Register(ctx context.Context) (string, error) {
	body, err := json.Marshal(r.reg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.adminURL+"/instances", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("admin server returned %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &out)
	return out.ID, nil
}

// Run registers immediately and then every interval until ctx ends.
// Failures are logged and retried on the next tick.
func (r *Registrar) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		id, err := r.Register(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("registration with admin server failed", "admin", r.adminURL, "error", err)
		} else {
			r.log.Debug("registered with admin server", "admin", r.adminURL, "instance", id)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
