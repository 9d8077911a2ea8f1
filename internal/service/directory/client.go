// Package directory: Iris 서버의 멤버 디렉토리(닉네임, 그룹명, 멤버 목록)를 조회하는
// HTTP 클라이언트. 호출 속도 제한과 서킷 브레이커로 외부 장애 전파를 차단한다.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	"github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// Member: 디렉토리가 반환하는 그룹 구성원 정보
type Member struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// Directory: 멤버 디렉토리 조회 인터페이스
type Directory interface {
	LookupNickname(ctx context.Context, group, userID string) (string, error)
	LookupGroupName(ctx context.Context, group string) (string, error)
	ListMembers(ctx context.Context, group string) ([]Member, error)
}

// Client: Iris HTTP 디렉토리 클라이언트
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *util.CircuitBreaker
	logger     *slog.Logger
}

// NewClient 는 동작을 수행한다.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	transport := &http.Transport{
		MaxConnsPerHost:     constants.DirectoryConfig.MaxConnsPerHost,
		MaxIdleConnsPerHost: constants.DirectoryConfig.MaxIdleConnsPerHost,
		IdleConnTimeout:     constants.DirectoryConfig.IdleConnTimeout,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   constants.DirectoryConfig.RequestTimeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(constants.DirectoryConfig.RatePerSecond), constants.DirectoryConfig.RateBurst),
		breaker: util.NewCircuitBreaker(
			constants.DirectoryConfig.FailureThreshold,
			constants.DirectoryConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// BreakerStatus: 서킷 브레이커 상태를 반환한다. (상태 API 용)
func (c *Client) BreakerStatus() util.CircuitBreakerStatus {
	return c.breaker.GetStatus()
}

type nicknameResponse struct {
	Nickname string `json:"nickname"`
}

type groupNameResponse struct {
	Name string `json:"name"`
}

type membersResponse struct {
	Members []Member `json:"members"`
}

// LookupNickname: 단일 사용자의 닉네임을 조회한다.
func (c *Client) LookupNickname(ctx context.Context, group, userID string) (string, error) {
	var resp nicknameResponse
	path := fmt.Sprintf("/api/member/%s/%s", url.PathEscape(group), url.PathEscape(userID))
	if err := c.getJSON(ctx, group, "lookup_nickname", path, &resp); err != nil {
		return "", err
	}
	return resp.Nickname, nil
}

// LookupGroupName: 그룹(채팅방)의 표시 이름을 조회한다.
func (c *Client) LookupGroupName(ctx context.Context, group string) (string, error) {
	var resp groupNameResponse
	path := fmt.Sprintf("/api/group/%s", url.PathEscape(group))
	if err := c.getJSON(ctx, group, "lookup_group", path, &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

// ListMembers: 그룹의 전체 구성원 목록을 조회한다.
func (c *Client) ListMembers(ctx context.Context, group string) ([]Member, error) {
	var resp membersResponse
	path := fmt.Sprintf("/api/members/%s", url.PathEscape(group))
	if err := c.getJSON(ctx, group, "list_members", path, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *Client) getJSON(ctx context.Context, group, operation, path string, dest any) error {
	if !c.breaker.CanExecute() {
		return errors.NewDirectoryError(group, operation, fmt.Errorf("circuit breaker open"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewDirectoryError(group, operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return errors.NewDirectoryError(group, operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return errors.NewDirectoryError(group, operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		return errors.NewDirectoryError(group, operation, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.breaker.RecordFailure()
		return errors.NewDirectoryError(group, operation, err)
	}

	c.breaker.RecordSuccess()
	return nil
}
