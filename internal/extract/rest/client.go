package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/extract"
)

var (
	extractionsSchema = extract.NewSchemaValidator("extractions.json", extract.BuildExtractionsJSONSchema())
	providersSchema   = extract.NewSchemaValidator("providers.json", extract.BuildProvidersJSONSchema())
)

// Client implements extract.Service over JSON/HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
	group      singleflight.Group
}

var _ extract.Service = (*Client)(nil)

type documentWire struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PageCount    int    `json:"pageCount"`
	CreationDate string `json:"creationDate"`
}

type providerWire struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PackageName   string `json:"packageName"`
	MinAppVersion string `json:"minAppVersion"`
	IconURL       string `json:"iconURL"`
}

// ResolveDocument fetches document metadata by identifier.
func (c *Client) ResolveDocument(ctx context.Context, id string) (entity.Document, error) {
	start := time.Now()
	raw, _, err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil)
	if err != nil {
		c.log.Error("rest.document.failed", "document_id", id, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.Document{}, toStatus("resolve document", err)
	}

	var w documentWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return entity.Document{}, common.InternalErrorf("decode document %s: %v", id, err)
	}
	if w.ID == "" {
		w.ID = id
	}
	doc := entity.Document{
		ID:        w.ID,
		Name:      w.Name,
		PageCount: w.PageCount,
		Raw:       json.RawMessage(raw),
	}
	if t, err := time.Parse(time.RFC3339, w.CreationDate); err == nil {
		doc.CreatedAt = t
	}
	c.log.Info("rest.document.ok", "document_id", doc.ID, "pages", doc.PageCount, "elapsed_ms", time.Since(start).Milliseconds())
	return doc, nil
}

// GetExtractions fetches, validates and decodes the extraction bundle for doc.
func (c *Client) GetExtractions(ctx context.Context, doc entity.Document) (entity.ExtractionBundle, error) {
	start := time.Now()
	raw, _, err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(doc.ID)+"/extractions", nil)
	if err != nil {
		c.log.Error("rest.extractions.http_error", "document_id", doc.ID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.ExtractionBundle{}, toStatus("get extractions", err)
	}

	// Validate strictly first.
	if err := extractionsSchema.Validate(raw); err != nil {
		if !c.cfg.LenientOptional {
			c.log.Error("rest.extractions.schema_validation_failed", "document_id", doc.ID, "error", err)
			return entity.ExtractionBundle{}, common.InternalErrorf("extractions for %s: %v", doc.ID, err)
		}
		cleaned, dropped, sErr := extract.NormalizeExtractionsJSON(raw, c.log)
		if sErr != nil {
			c.log.Error("rest.extractions.sanitize_failed", "document_id", doc.ID, "error", sErr)
			return entity.ExtractionBundle{}, common.InternalErrorf("extractions for %s: %v", doc.ID, sErr)
		}
		if vErr := extractionsSchema.Validate(cleaned); vErr != nil {
			c.log.Error("rest.extractions.schema_validation_failed", "document_id", doc.ID, "error", vErr)
			return entity.ExtractionBundle{}, common.InternalErrorf("extractions for %s: %v", doc.ID, vErr)
		}
		c.log.Warn("rest.extractions.lenient_sanitize_applied", "document_id", doc.ID, "dropped", dropped)
		raw = cleaned
	}

	var bundle entity.ExtractionBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return entity.ExtractionBundle{}, common.InternalErrorf("decode extractions for %s: %v", doc.ID, err)
	}
	if bundle.Specific == nil {
		bundle.Specific = map[string]entity.Extraction{}
	}
	for name, e := range bundle.Specific {
		if e.Name == "" {
			e.Name = name
			bundle.Specific[name] = e
		}
	}

	c.log.Info("rest.extractions.ok",
		"document_id", doc.ID,
		"specific", len(bundle.Specific),
		"compound", len(bundle.Compound),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return bundle, nil
}

// ListPaymentProviders returns the provider list. Concurrent callers share one request.
func (c *Client) ListPaymentProviders(ctx context.Context) ([]entity.PaymentProvider, error) {
	v, err, shared := c.group.Do("providers", func() (any, error) {
		return c.fetchProviders(ctx)
	})
	if err != nil {
		return nil, err
	}
	providers := v.([]entity.PaymentProvider)
	if shared {
		c.log.Debug("rest.providers.shared", "count", len(providers))
	}
	out := make([]entity.PaymentProvider, len(providers))
	copy(out, providers)
	return out, nil
}

func (c *Client) fetchProviders(ctx context.Context) ([]entity.PaymentProvider, error) {
	start := time.Now()
	raw, _, err := c.do(ctx, http.MethodGet, "/paymentProviders", nil)
	if err != nil {
		c.log.Error("rest.providers.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, toStatus("list payment providers", err)
	}
	if err := providersSchema.Validate(raw); err != nil {
		c.log.Error("rest.providers.schema_validation_failed", "error", err)
		return nil, common.InternalErrorf("payment providers: %v", err)
	}

	var wire []providerWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, common.InternalErrorf("decode payment providers: %v", err)
	}
	out := make([]entity.PaymentProvider, 0, len(wire))
	for _, w := range wire {
		out = append(out, entity.PaymentProvider{
			ID:            w.ID,
			Name:          w.Name,
			PackageName:   w.PackageName,
			MinAppVersion: w.MinAppVersion,
			IconURL:       w.IconURL,
		})
	}
	c.log.Info("rest.providers.ok", "count", len(out), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// CreatePaymentRequest creates a payment request and returns its identifier.
// Incomplete input is rejected with InvalidArgument before any request is sent.
func (c *Client) CreatePaymentRequest(ctx context.Context, in extract.PaymentRequestInput) (string, error) {
	v := common.NewValidator().
		Field("paymentProvider", in.ProviderID, common.Required).
		Field("recipient", in.Recipient, common.Required).
		Field("iban", in.IBAN, common.Required, common.IBAN).
		Field("amount", in.Amount, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return "", err
	}

	start := time.Now()
	raw, _, err := c.do(ctx, http.MethodPost, "/paymentRequests", in)
	if err != nil {
		c.log.Error("rest.payment_request.failed", "provider_id", in.ProviderID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", toStatus("create payment request", err)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.InternalErrorf("decode payment request: %v", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", common.InternalError("payment request response carries no id")
	}
	c.log.Info("rest.payment_request.ok", "provider_id", in.ProviderID, "request_id", out.ID, "elapsed_ms", time.Since(start).Milliseconds())
	return out.ID, nil
}

// SendFeedback submits corrected extractions for doc.
func (c *Client) SendFeedback(ctx context.Context, doc entity.Document, corrected entity.ExtractionBundle) error {
	body := map[string]any{"feedback": corrected}
	if _, _, err := c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(doc.ID)+"/extractions", body); err != nil {
		return toStatus("send feedback", err)
	}
	c.log.Info("rest.feedback.ok", "document_id", doc.ID, "extractions", len(corrected.Specific))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	headers := map[string]string{}
	if c.cfg.Token != "" {
		headers["Authorization"] = "Bearer " + c.cfg.Token
	}
	return extract.DoJSON(ctx, c.httpClient, method, c.cfg.BaseURL+path, body, headers, c.log)
}

// toStatus maps transport and HTTP failures to gRPC status errors.
func toStatus(op string, err error) error {
	var se *extract.StatusError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("%s: status %d: %s", op, se.Status, summarize(se.Body))
		switch code := codeForHTTP(se.Status); code {
		case codes.NotFound:
			return common.NotFoundError(msg)
		case codes.InvalidArgument:
			return common.InvalidArgumentError(msg)
		case codes.Unavailable:
			return common.UnavailableError(msg)
		case codes.Internal:
			return common.InternalError(msg)
		default:
			return status.Error(code, msg)
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", op, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", op, err)
	}
	return status.Errorf(codes.Unavailable, "%s: %v", op, err)
}

func codeForHTTP(code int) codes.Code {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound, http.StatusGone:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusNotImplemented:
		return codes.Unimplemented
	}
	if code >= 500 {
		return codes.Internal
	}
	return codes.Unknown
}

func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return fmt.Sprintf("%d bytes", len(body))
	}
	return s
}
