package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bankrot-check/internal/challenge"
	"bankrot-check/internal/components/assert"
	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/roster"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	random "github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint    = "https://old.bankrot.fedresurs.ru/DebtorsSearch.aspx"
	DefaultMaxAttempts = 20
	DefaultDelayMin    = time.Second
	DefaultDelayMax    = 2 * time.Second
	DefaultTimeout     = 30 * time.Second

	sessionCookieName = "bankrotcookie"
	searchCookieName  = "debtorsearch"
)

type Options struct {
	Endpoint string
	// Proxy is an http, https or socks5 URL, empty means a direct connection.
	Proxy   string
	Timeout time.Duration
	// RateLimit is the max requests per second, 0 disables limiting.
	RateLimit float64

	MaxAttempts int
	DelayMin    time.Duration
	DelayMax    time.Duration

	Deriver   challenge.Deriver
	Telemetry telemetry.API
	// Messages receives a dump of every HTTP exchange, it can be nil.
	Messages telemetry.MessageOutput
	// Sleep waits between attempts, it defaults to a timer that stops early
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.DelayMin == 0 && o.DelayMax == 0 {
		o.DelayMin = DefaultDelayMin
		o.DelayMax = DefaultDelayMax
	}
	if o.DelayMax < o.DelayMin {
		o.DelayMax = o.DelayMin
	}
	if o.Deriver == nil {
		o.Deriver = challenge.AESDeriver{}
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session is one scraper identity: an HTTP client with a stable browser
// fingerprint and the access cookie it earned.
//
// A Session is not safe for concurrent use, concurrent workers must each own
// one.
type Session struct {
	opts   Options
	http   *resty.Client
	cookie string
	tel    telemetry.API
}

func NewSession(opts Options) (*Session, error) {
	assert.NotNil(opts.Telemetry, "telemetry")
	opts = opts.withDefaults()

	tel := telemetry.NewScopedAPI("registry", opts.Telemetry)

	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute url", opts.Endpoint)
	}

	fp, err := randomFingerprint()
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeaders(fp.headers(opts.Endpoint))
	if opts.Proxy != "" {
		proxy, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		switch proxy.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", proxy.Scheme)
		}
		client.SetProxy(opts.Proxy)
	}
	// must come after SetProxy, resty can only configure an *http.Transport
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if opts.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel, opts.Messages)

	tel.ReportDebug("session created", fp.UserAgent, opts.Proxy != "")

	return &Session{
		opts: opts,
		http: client,
		tel:  tel,
	}, nil
}

// Cookie returns the current access cookie, it is empty until the first
// challenge is solved.
func (s *Session) Cookie() string {
	return s.cookie
}

// quote percent-encodes a name the way the site's search form does.
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// searchPayload is the search form state. The site reads the query from
// this cookie rather than from the url.
func searchPayload(subject roster.Subject) string {
	return "typeofsearch=Persons&" +
		"orgname=&" +
		"orgaddress=&" +
		"orgregionid=&" +
		"orgogrn=&" +
		"orginn=&" +
		"orgokpo=&" +
		"OrgCategory=&" +
		"prslastname=" + quote(subject.LastName()) + "&" +
		"prsfirstname=" + quote(subject.FirstName()) + "&" +
		"prsmiddlename=" + quote(subject.MiddleName()) + "&" +
		"prsaddress=&" +
		"prsregionid=&" +
		"prsinn=&" +
		"prsogrn=&" +
		"prssnils=&" +
		"PrsCategory=&" +
		"pagenumber=0"
}

// search sends one search request and returns the page body.
func (s *Session) search(ctx context.Context, subject roster.Subject) (string, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetCookies([]*http.Cookie{
			{Name: sessionCookieName, Value: s.cookie},
			{Name: searchCookieName, Value: searchPayload(subject)},
		}).
		Get(s.opts.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("%w: status %s", ErrRequestFailed, res.Status())
	}
	return res.String(), nil
}

func (s *Session) jitter() time.Duration {
	minMs := s.opts.DelayMin.Milliseconds()
	maxMs := s.opts.DelayMax.Milliseconds()
	if maxMs <= minMs {
		return s.opts.DelayMin
	}
	ms, err := random.IntRange(int(minMs), int(maxMs))
	if err != nil {
		s.tel.ReportWarning(report_session_check, fmt.Errorf("jitter: %w", err))
		return s.opts.DelayMax
	}
	return time.Duration(ms) * time.Millisecond
}
