package steamtime

//go:generate mockgen -source=steamtime_client.go -destination=steamtimeMock.go -package=steamtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/utils/otp"
)

const (
	DefaultHost = "https://api.steampowered.com"

	queryTimePath = "ITwoFactorService/QueryTime/v1/"
)

var (
	// ErrTimeSyncFailed is returned when the time endpoint could not be reached
	// or answered with a non success status
	ErrTimeSyncFailed = errors.New("time sync failed")
	// ErrMalformedResponse is returned when the time endpoint answered without a server time
	ErrMalformedResponse = errors.New("malformed response")
)

type (
	ClientInterface interface {
		QueryOffset(ctx context.Context) (*models.TimeOffset, error)
	}

	Client struct {
		host       string           // host url
		httpClient *http.Client     // store a reference to the http client so we can reuse it
		now        func() time.Time // local clock the offset is measured against
	}

	ClientBuilder struct {
		host       string
		httpClient *http.Client
		now        func() time.Time
	}

	queryTimeResponse struct {
		Response *struct {
			ServerTime serverTime `json:"server_time"`
		} `json:"response"`
	}

	// serverTime accepts both a JSON number and a numeric string, Steam sends the latter
	serverTime int64
)

func NewSteamTimeClientBuilder() *ClientBuilder {
	return &ClientBuilder{}
}

// WithHost set the host
func (b *ClientBuilder) WithHost(host string) *ClientBuilder {
	b.host = host
	return b
}

// WithHTTPClient set the HTTP client
func (b *ClientBuilder) WithHTTPClient(httpClient *http.Client) *ClientBuilder {
	b.httpClient = httpClient
	return b
}

// WithClock set the local clock, it defaults to the one codes are generated with
func (b *ClientBuilder) WithClock(now func() time.Time) *ClientBuilder {
	b.now = now
	return b
}

// Build return client from builder
func (b *ClientBuilder) Build() *Client {
	if b.host == "" {
		b.host = DefaultHost
	}
	if b.httpClient == nil {
		b.httpClient = http.DefaultClient
	}
	if b.now == nil {
		b.now = otp.Now
	}

	return &Client{
		host:       b.host,
		httpClient: b.httpClient,
		now:        b.now,
	}
}

func (c *Client) getHost() (*url.URL, error) {
	theURL, err := url.Parse(c.host)
	if err != nil {
		return nil, fmt.Errorf("unable to parse urlString[%s]", c.host)
	}
	return theURL, nil
}

// QueryOffset asks Steam for its current time and measures how far the
// local clock is from it. It does not retry.
func (c *Client) QueryOffset(ctx context.Context) (*models.TimeOffset, error) {
	host, err := c.getHost()
	if err != nil {
		return nil, errors.Wrap(ErrTimeSyncFailed, err.Error())
	}
	host.Path = path.Join("/", host.Path, queryTimePath) + "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(ErrTimeSyncFailed, "QueryOffset: error formatting request: %s", err)
	}
	req.Header.Set("Content-Length", "0")

	start := c.now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrTimeSyncFailed, "QueryOffset: %s", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Wrapf(ErrTimeSyncFailed, "unknown response code from service[%s]: %d", req.URL, res.StatusCode)
	}

	var parsed queryTimeResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "error parsing JSON results: %s", err)
	}
	if parsed.Response == nil || parsed.Response.ServerTime == 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "missing response.server_time")
	}
	end := c.now()

	latency := end.Sub(start).Milliseconds()
	if latency < 0 {
		latency = 0
	}

	return &models.TimeOffset{
		Offset:  int64(parsed.Response.ServerTime) - start.Unix(),
		Latency: latency,
	}, nil
}

func (t *serverTime) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "server_time %s is not an integer", data)
	}
	*t = serverTime(v)
	return nil
}
