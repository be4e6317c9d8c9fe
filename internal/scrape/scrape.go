// Package scrape fetches third-party HTML pages and hands them back as
// goquery documents.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/matthewgall/pricer/internal/models"
)

// ErrTransport wraps every failure to obtain a 2xx response: network
// errors, timeouts and non-2xx statuses.
var ErrTransport = errors.New("transport error")

const DefaultTimeout = 10 * time.Second

// fallbackUserAgent is used when the user agent pool returns nothing.
const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var tracer = otel.Tracer("github.com/matthewgall/pricer/internal/scrape")

// Recorder receives every successfully fetched page body.
type Recorder interface {
	Record(ctx context.Context, source models.Source, label string, body []byte)
}

type Options struct {
	Timeout          time.Duration
	UserAgent        func() string
	BypassCloudflare bool
	Recorder         Recorder
}

type Client struct {
	http      *resty.Client
	userAgent func() string
	recorder  Recorder
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == nil {
		userAgent = browser.Computer
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetHeaders(map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	})
	if opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	return &Client{
		http:      httpClient,
		userAgent: userAgent,
		recorder:  opts.Recorder,
	}
}

// Fetch issues one GET and parses the body. label identifies the request in
// traces and captured pages.
func (c *Client) Fetch(ctx context.Context, source models.Source, target, label string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "scrape.fetch", trace.WithAttributes(
		attribute.String("source", source.String()),
		attribute.String("url", target),
	))
	defer span.End()

	doc, err := c.fetch(ctx, source, target, label)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, source models.Source, target, label string) (*goquery.Document, error) {
	ua := strings.TrimSpace(c.userAgent())
	if ua == "" {
		ua = fallbackUserAgent
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", ua).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrTransport, hostOf(target), err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s request failed with status %d", ErrTransport, hostOf(target), resp.StatusCode())
	}

	body := resp.Body()
	if c.recorder != nil {
		c.recorder.Record(ctx, source, label, body)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	slog.DebugContext(ctx, "fetched page", "source", source, "status", resp.StatusCode(), "bytes", len(body))
	return doc, nil
}

func hostOf(target string) string {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return target
	}
	return parsed.Host
}

// Text returns the whitespace-collapsed text of every node in sel.
func Text(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		parts = append(parts, nodeText(node))
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func nodeText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return builder.String()
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
