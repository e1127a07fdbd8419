// Package decision talks to the external placement-decision service. The
// service receives one normalized offer per request and answers with the
// list of tasks it wants launched against that offer.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/mesosproxy/scheduler/scheduler"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrUnavailable covers every way a placement request can fail: network
// errors, timeouts, non-2xx statuses and malformed response bodies.
// Callers decline the offer and move on; the decision service is the one
// external party that controls latency here, so its failures are never
// allowed to propagate further than a single offer.
var ErrUnavailable = errors.New("decision service unavailable")

// Client issues placement requests against a decision service endpoint.
type Client struct {
	httpClient http.Client
	url        *url.URL
}

// NewClient builds a client for the decision service at baseuri. The
// timeout bounds each request end to end; per-call contexts can shorten
// it further.
func NewClient(baseuri string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseuri)
	if err != nil {
		return nil, errors.Wrap(err, "parsing decision service URL")
	}
	return &Client{
		httpClient: http.Client{Timeout: timeout},
		url:        u,
	}, nil
}

// RequestPlacement POSTs the normalized offer to <base>/offer and parses
// the response as the list of task specs to launch. Any transport or
// protocol failure comes back wrapped around ErrUnavailable.
func (c *Client) RequestPlacement(ctx context.Context, record *scheduler.OfferRecord) ([]scheduler.TaskSpec, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "encoding offer record")
	}

	u := *c.url
	u.Path = path.Join(u.Path, "offer")
	request, err := http.NewRequest("POST", u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building placement request")
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(request.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "offer %s: %v", record.ID, err)
	}
	defer shouldClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(ErrUnavailable, "offer %s: status %s", record.ID, resp.Status)
	}

	var specs []scheduler.TaskSpec
	if err := json.NewDecoder(resp.Body).Decode(&specs); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "offer %s: decoding response: %v", record.ID, err)
	}
	return specs, nil
}

func shouldClose(closeable io.Closer) {
	if err := closeable.Close(); err != nil {
		log.Errorf("Unable to close %v because: %v", closeable, err)
	}
}
