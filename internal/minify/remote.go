package minify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/version"
)

// Default endpoints of the public minification services.
const (
	DefaultMarkupEndpoint = "https://html-minifier.com/raw"
	DefaultStyleEndpoint  = "https://cssminifier.com/raw"
	DefaultScriptEndpoint = "https://javascript-minifier.com/raw"
	// DefaultErrorMarker prefixes a 2xx response body that reports a failure.
	DefaultErrorMarker = "// Error"
)

// Failure reasons recorded in the "reason" context of service errors.
const (
	ReasonRejected  = "rejected"
	ReasonTransport = "transport"
)

const maxPayloadInError = 512

// RemoteConfig configures the HTTP minification service client.
type RemoteConfig struct {
	Endpoints   map[catalog.Kind]string
	ErrorMarker string
	// Client defaults to a client without its own timeout; bound latency
	// with a context deadline.
	Client *http.Client
}

// DefaultEndpoints returns the public service endpoint for every minifiable kind.
func DefaultEndpoints() map[catalog.Kind]string {
	return map[catalog.Kind]string{
		catalog.KindMarkup: DefaultMarkupEndpoint,
		catalog.KindStyle:  DefaultStyleEndpoint,
		catalog.KindScript: DefaultScriptEndpoint,
	}
}

// Remote posts content as the form field "input" to a per-kind endpoint and
// returns the response body. No request is retried.
type Remote struct {
	endpoints map[catalog.Kind]string
	marker    string
	client    *http.Client
}

// NewRemote creates a Remote, filling unset endpoints and marker with defaults.
func NewRemote(cfg RemoteConfig) *Remote {
	endpoints := DefaultEndpoints()
	for k, v := range cfg.Endpoints {
		if v != "" {
			endpoints[k] = v
		}
	}
	marker := cfg.ErrorMarker
	if marker == "" {
		marker = DefaultErrorMarker
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{endpoints: endpoints, marker: marker, client: client}
}

// Minify sends src to the endpoint for kind. A transport failure or non-2xx
// status and a body starting with the error marker are both service errors,
// told apart by the "reason" context value.
func (r *Remote) Minify(ctx context.Context, kind catalog.Kind, src []byte) (string, error) {
	endpoint, ok := r.endpoints[kind]
	if !ok || !kind.Minifiable() {
		return "", unsupportedKind(kind)
	}

	form := url.Values{"input": {string(src)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid minification endpoint").
			WithSeverity(foundationerrors.SeverityFatal).
			WithContext("url", endpoint).
			Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "sitepub/"+version.Version)

	slog.Debug("Minification request", logfields.Kind(string(kind)), logfields.URL(endpoint), logfields.Bytes(len(src)))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", transportError(err, kind, endpoint).Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err, kind, endpoint).Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", transportError(nil, kind, endpoint).
			WithContext("status", resp.StatusCode).
			WithContext("payload", truncate(string(body))).
			Build()
	}

	out := string(body)
	if strings.HasPrefix(out, r.marker) {
		return "", foundationerrors.ServiceError("minification service rejected the input").
			WithContext("kind", string(kind)).
			WithContext("url", endpoint).
			WithContext("reason", ReasonRejected).
			WithContext("payload", truncate(out)).
			Build()
	}
	return out, nil
}

func transportError(cause error, kind catalog.Kind, endpoint string) *foundationerrors.ErrorBuilder {
	return foundationerrors.ServiceError("minification request failed").
		WithCause(cause).
		WithContext("kind", string(kind)).
		WithContext("url", endpoint).
		WithContext("reason", ReasonTransport)
}

func truncate(s string) string {
	if len(s) <= maxPayloadInError {
		return s
	}
	return s[:maxPayloadInError] + "..."
}
