// Package iris: 카카오톡 브리지(Iris) 서버와 통신하는 클라이언트.
package iris

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// HTTPClient: Iris HTTP API 기반 Client 구현체
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient: Iris HTTP 클라이언트를 생성합니다.
func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.RequestTimeout.APIRequest,
		},
		logger: logger,
	}
}

// SendMessage: 텍스트 메시지를 전송한다.
func (c *HTTPClient) SendMessage(ctx context.Context, room, message string) error {
	return c.reply(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

// SendImage: Base64 인코딩된 이미지를 전송한다.
func (c *HTTPClient) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.reply(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

// Ping: Iris 서버 연결 상태를 확인한다.
func (c *HTTPClient) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/config", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

func (c *HTTPClient) reply(ctx context.Context, payload ReplyRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewDeliveryError(payload.Room, payload.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reply", bytes.NewReader(body))
	if err != nil {
		return errors.NewDeliveryError(payload.Room, payload.Type, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewDeliveryError(payload.Room, payload.Type, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.NewDeliveryError(payload.Room, payload.Type,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	c.logger.Debug("Iris reply sent",
		slog.String("room", payload.Room),
		slog.String("type", payload.Type),
	)
	return nil
}
