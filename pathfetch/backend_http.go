package pathfetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"

	"github.com/tileflow/streamcore/cmn"
)

// HTTPBackend fetches http:// and https:// URIs via a shared fasthttp
// client, matching the teacher's httpProvider split-by-scheme client
// pattern (ais/backend/http.go) but collapsed to one client since
// fasthttp negotiates TLS per request from the URI itself.
type HTTPBackend struct {
	client *fasthttp.Client
}

func NewHTTPBackend() *HTTPBackend {
	return &HTTPBackend{client: &fasthttp.Client{}}
}

func (b *HTTPBackend) FetchBytes(ctx context.Context, u *url.URL) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.String())
	req.Header.SetMethod(fasthttp.MethodGet)

	if deadline, ok := ctx.Deadline(); ok {
		if err := b.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, cmn.NewIoError("request failed", err)
		}
	} else if err := b.client.Do(req, resp); err != nil {
		return nil, cmn.NewIoError("request failed", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, cmn.NewIoError(fmt.Sprintf("%d %s", status, fasthttp.StatusMessage(status)), nil)
	}

	body := resp.Body()
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}
