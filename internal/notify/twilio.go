package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"

	errs "github.com/lueurxax/proactive-notifier/internal/core/errors"
)

// TwilioConfig configures the Twilio Messages API client.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// BaseURL overrides the API host.
	BaseURL    string
	RateRPS    float64
	Timeout    time.Duration
}

// TwilioClient sends texts through the Twilio Messages API.
type TwilioClient struct {
	from    string
	limiter *rate.Limiter
	rest    *twilio.RestClient
}

// NewTwilioClient creates a Twilio client.
func NewTwilioClient(cfg TwilioConfig) *TwilioClient {
	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPWait
	}

	httpClient := &http.Client{Timeout: timeout}

	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Host != "" {
		httpClient.Transport = hostRewriter{base: base, next: http.DefaultTransport}
	}

	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioClient{
		from:    cfg.From,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateRPS), 1),
		rest:    twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}
}

// SendSMS implements ports.SMSSender and returns the message SID.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("%w: empty phone number", errs.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("twilio rate limit: %w", err)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	// The SDK call takes no context; the HTTP client timeout bounds it.
	msg, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrSendFailed, err)
	}

	if msg.Sid == nil {
		return "", nil
	}

	return *msg.Sid, nil
}

// hostRewriter sends every request to base instead of the Twilio API host.
type hostRewriter struct {
	base *url.URL
	next http.RoundTripper
}

func (h hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = h.base.Scheme
	out.URL.Host = h.base.Host
	out.Host = h.base.Host

	return h.next.RoundTrip(out)
}
