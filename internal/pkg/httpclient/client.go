// internal/pkg/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"minimall/internal/pkg/nacos"
)

// ErrNotFound 表示对端返回了 404。调用方据此区分业务性缺失与其他失败。
var ErrNotFound = errors.New("downstream returned not found")

// Client 是可追踪的服务间 HTTP 客户端，目标地址通过 Nacos 解析。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	discovery  *nacos.Client
}

// NewClient 创建客户端。超时不在这里设置，完全受每次调用传入的 context 控制。
func NewClient(tracer trace.Tracer, discovery *nacos.Client) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		discovery: discovery,
	}
}

// CallService 调用 serviceName 的 path 接口。
// body 非 nil 时编码为 JSON 请求体；out 非 nil 时把 2xx 响应体解码进去。
func (c *Client) CallService(ctx context.Context, serviceName, method, path string, query url.Values, body, out interface{}) error {
	ip, port, err := c.discovery.Discover(serviceName)
	if err != nil {
		return err
	}

	target := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("%s:%d", ip, port),
		Path:     path,
		RawQuery: query.Encode(),
	}

	ctx, span := c.Tracer.Start(ctx, "call-"+serviceName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.url", target.String()),
		attribute.String("http.method", method),
	)

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "encode request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrapf(err, "call %s%s", serviceName, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(codes.Error, resp.Status)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("service %s%s returned status %s", serviceName, path, resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return errors.Wrapf(err, "decode response from %s%s", serviceName, path)
		}
	}
	return nil
}
