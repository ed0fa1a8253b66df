package rest

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/payment-review/internal/common"
)

// Config for the REST client.
type Config struct {
	BaseURL         string        // required
	Token           string        // if empty, falls back to env PAYMENT_API_TOKEN
	Timeout         time.Duration // http client timeout
	LenientOptional bool          // sanitize and re-validate responses that fail the schema
}

// ConfigFromService builds a client config from the application config.
func ConfigFromService(sc common.ServiceConfig) Config {
	return Config{
		BaseURL:         sc.BaseURL,
		Token:           sc.Token,
		Timeout:         sc.Timeout,
		LenientOptional: true,
	}
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Token == "" {
		cfg.Token = os.Getenv("PAYMENT_API_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
