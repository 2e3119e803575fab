package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/annotext/batch-annotator/pkg/metrics"
)

const (
	// RequestTimeout bounds each individual annotation request. It is the
	// only timeout in the whole batch path.
	RequestTimeout = 60 * time.Second

	// MaxInFlight bounds the number of outstanding annotation requests,
	// independent of the engine stage widths.
	MaxInFlight = 5

	annotatePath = "/annotate"
)

// Annotator turns raw file contents into an annotated document.
type Annotator interface {
	Annotate(ctx context.Context, name string, contents []byte) (Document, error)
}

type ClientOpts func(c *Client)

// Client is the HTTP gateway to the external annotation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sem        *semaphore.Weighted
}

func NewClient(baseURL string, opts ...ClientOpts) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		sem:        semaphore.NewWeighted(MaxInFlight),
	}

	for _, o := range opts {
		o(c)
	}
	return c
}

func WithHTTPClient(httpClient *http.Client) ClientOpts {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Annotate posts the file contents to the annotation service and waits for
// the annotated document, at most RequestTimeout. The returned document is
// stamped with the originating file name.
func (c *Client) Annotate(ctx context.Context, name string, contents []byte) (Document, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return Document{}, err
	}
	defer c.sem.Release(1)

	metrics.IncreaseAnnotationsInFlightMetric()
	defer metrics.DecreaseAnnotationsInFlightMetric()

	reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+annotatePath, bytes.NewReader(contents))
	if err != nil {
		return Document{}, errors.Wrap(err, "failed to build annotation request")
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, errors.Wrapf(err, "annotation request for %s failed", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("annotation service replied %d for %s", resp.StatusCode, name)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, errors.Wrapf(err, "failed to decode annotated document for %s", name)
	}

	doc.SourceName = name
	return doc, nil
}
