package metadoc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
)

type Config struct {
	IPFSGateway       string
	Timeout           time.Duration
	MaxDocumentBytes  int64
	RequestsPerSecond float64
}

// HTTPFetcher fetches JSON documents over http(s), ipfs (through a gateway)
// and inline data: URIs.
type HTTPFetcher struct {
	client   *http.Client
	gateway  string
	maxBytes int64
	limiter  *rate.Limiter
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultDocumentTimeout
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = constants.DefaultMaxDocumentBytes
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = constants.DefaultDocumentRPS
	}
	gateway := strings.TrimSpace(cfg.IPFSGateway)
	if gateway == "" {
		gateway = constants.DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}

	return &HTTPFetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		gateway:  gateway,
		maxBytes: cfg.MaxDocumentBytes,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (f *HTTPFetcher) GetJSON(ctx context.Context, uri string, v any) error {
	uri = strings.TrimSpace(uri)
	if strings.HasPrefix(uri, "data:") {
		b, err := decodeDataURI(uri)
		if err != nil {
			return err
		}
		return errors.Wrap(json.Unmarshal(b, v), "metadoc: decode data uri json")
	}

	resolved, err := ResolveURI(uri, f.gateway)
	if err != nil {
		return err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "metadoc: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return errors.Wrap(err, "metadoc: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "metadoc: get %s", resolved)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return errors.Wrap(err, "metadoc: read body")
	}
	if int64(len(b)) > f.maxBytes {
		return errors.Newf("metadoc: document exceeds %d bytes", f.maxBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("metadoc: http %d from %s", resp.StatusCode, resolved)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrap(err, "metadoc: decode json")
	}
	return nil
}

// ResolveURI rewrites ipfs:// URIs onto gateway and passes http(s) through.
func ResolveURI(uri, gateway string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "metadoc: parse uri %q", uri)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return uri, nil
	case "ipfs":
		path := ipfsPath(u)
		if path == "" {
			return "", errors.Newf("metadoc: empty ipfs path in %q", uri)
		}
		if !strings.HasSuffix(gateway, "/") {
			gateway += "/"
		}
		return gateway + path, nil
	default:
		return "", errors.Newf("metadoc: unsupported uri scheme %q", u.Scheme)
	}
}

// ipfsPath accepts ipfs://CID/..., ipfs:/CID/..., ipfs:CID and the
// ipfs://ipfs/CID spelling.
func ipfsPath(u *url.URL) string {
	path := u.Opaque
	if path == "" {
		path = u.Host + u.EscapedPath()
	}
	path = strings.TrimLeft(path, "/")
	path = strings.TrimPrefix(path, "ipfs/")
	if path != "" && u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.New("metadoc: malformed data uri")
	}
	header, payload := uri[len("data:"):comma], uri[comma+1:]

	if strings.HasSuffix(header, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(err, "metadoc: decode base64 data uri")
		}
		return b, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(err, "metadoc: unescape data uri")
	}
	return []byte(s), nil
}
