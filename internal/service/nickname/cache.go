// Package nickname: (그룹, 사용자) -> 닉네임 매핑을 관리하는 멤버 캐시.
// 엔트리는 Unresolved/Resolved/Stale 세 상태를 가지며, 오래된 엔트리는
// 표시는 가능하되 갱신 대상으로 분류된다. 스냅샷은 Valkey에 영속화된다.
package nickname

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/directory"
)

// State: 캐시 엔트리의 상태
type State string

// State 상수 목록.
const (
	// StateUnresolved: 조회된 적 없음 (원본 ID로 표시)
	StateUnresolved State = "unresolved"
	// StateResolved: 신선한 닉네임 보유
	StateResolved State = "resolved"
	// StateStale: 닉네임은 있으나 갱신 주기를 초과함
	StateStale State = "stale"
)

type entry struct {
	Nickname   string    `json:"nickname"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type groupCache struct {
	Name        string            `json:"name,omitempty"`
	NameAt      time.Time         `json:"nameAt,omitempty"`
	Entries     map[string]*entry `json:"entries"`
	RefreshedAt time.Time         `json:"refreshedAt,omitempty"`
}

// Status: 그룹 캐시 상태 요약
type Status struct {
	Entries     int       `json:"entries"`
	Resolved    int       `json:"resolved"`
	Stale       int       `json:"stale"`
	Unresolved  int       `json:"unresolved"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Cache: 멤버 닉네임 캐시 서비스
type Cache struct {
	mu     sync.RWMutex
	groups map[string]*groupCache

	directory  directory.Directory
	cacheSvc   *cache.Service
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewCache 는 동작을 수행한다.
func NewCache(dir directory.Directory, cacheSvc *cache.Service, logger *slog.Logger) *Cache {
	return &Cache{
		groups:     make(map[string]*groupCache),
		directory:  dir,
		cacheSvc:   cacheSvc,
		staleAfter: constants.NicknameCacheConfig.StaleAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock: 테스트를 위해 시간 소스를 교체한다.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func snapshotKey(group string) string {
	return constants.NicknameCacheConfig.SnapshotKeyPrefix + ":" + group
}

// Load: Valkey에 저장된 그룹 스냅샷들을 복원한다.
func (c *Cache) Load(ctx context.Context) error {
	keys, err := c.cacheSvc.Keys(ctx, constants.NicknameCacheConfig.SnapshotKeyPrefix+":*")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prefixLen := len(constants.NicknameCacheConfig.SnapshotKeyPrefix) + 1
	for _, key := range keys {
		if len(key) <= prefixLen {
			continue
		}
		group := key[prefixLen:]

		var snap groupCache
		if err := c.cacheSvc.Get(ctx, key, &snap); err != nil {
			c.logger.Warn("Nickname snapshot unreadable", slog.String("group", group), slog.Any("error", err))
			continue
		}
		if snap.Entries == nil {
			snap.Entries = make(map[string]*entry)
		}
		c.groups[group] = &snap
	}

	c.logger.Info("Nickname cache loaded", slog.Int("groups", len(c.groups)))
	return nil
}

// persist: 그룹 스냅샷을 Valkey에 기록한다. 실패는 경고로만 처리한다.
func (c *Cache) persist(ctx context.Context, group string) {
	c.mu.RLock()
	snap, ok := c.groups[group]
	if !ok {
		c.mu.RUnlock()
		return
	}
	copied := groupCache{
		Name:        snap.Name,
		NameAt:      snap.NameAt,
		RefreshedAt: snap.RefreshedAt,
		Entries:     make(map[string]*entry, len(snap.Entries)),
	}
	for userID, e := range snap.Entries {
		copied.Entries[userID] = &entry{Nickname: e.Nickname, ResolvedAt: e.ResolvedAt}
	}
	c.mu.RUnlock()

	if err := c.cacheSvc.Set(ctx, snapshotKey(group), &copied, constants.NicknameCacheConfig.SnapshotTTL); err != nil {
		c.logger.Warn("Nickname snapshot persist failed", slog.String("group", group), slog.Any("error", err))
	}
}

// EntryState: 특정 사용자의 캐시 상태를 반환한다.
func (c *Cache) EntryState(group, userID string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.groups[group]
	if !ok {
		return StateUnresolved
	}
	e, ok := g.Entries[userID]
	if !ok || e.Nickname == "" {
		return StateUnresolved
	}
	if c.now().Sub(e.ResolvedAt) > c.staleAfter {
		return StateStale
	}
	return StateResolved
}

func (c *Cache) lookup(group, userID string) (nickname string, state State) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.groups[group]
	if !ok {
		return "", StateUnresolved
	}
	e, ok := g.Entries[userID]
	if !ok || e.Nickname == "" {
		return "", StateUnresolved
	}
	if c.now().Sub(e.ResolvedAt) > c.staleAfter {
		return e.Nickname, StateStale
	}
	return e.Nickname, StateResolved
}

func (c *Cache) store(group, userID, nickname string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.groups[group]
	if !ok {
		g = &groupCache{Entries: make(map[string]*entry)}
		c.groups[group] = g
	}
	g.Entries[userID] = &entry{Nickname: nickname, ResolvedAt: c.now()}
}

// Resolve: 사용자의 표시 이름을 반환한다. 디렉토리 조회는 제한 시간 안에서만
// 시도하며, 실패 시 오래된 닉네임 또는 원본 ID로 폴백한다.
func (c *Cache) Resolve(ctx context.Context, group, userID string) string {
	cached, state := c.lookup(group, userID)
	if state == StateResolved {
		return cached
	}

	lookupCtx, cancel := context.WithTimeout(ctx, constants.NicknameCacheConfig.ResolveTimeout)
	defer cancel()

	nickname, err := c.directory.LookupNickname(lookupCtx, group, userID)
	if err != nil || nickname == "" {
		if err != nil {
			c.logger.Debug("Nickname lookup failed, using fallback",
				slog.String("group", group),
				slog.String("user", userID),
				slog.Any("error", err),
			)
		}
		if cached != "" {
			return cached // Stale 엔트리는 그대로 표시
		}
		return userID
	}

	c.store(group, userID, nickname)
	return nickname
}

// ResolveAll: 리더보드 출력을 위해 여러 사용자를 한 번에 해석한다.
// 캐시 미스는 bounded 고루틴 풀로 개별 조회한다.
func (c *Cache) ResolveAll(ctx context.Context, group string, userIDs []string) map[string]string {
	result := make(map[string]string, len(userIDs))
	var resultMu sync.Mutex

	misses := make([]string, 0)
	for _, userID := range userIDs {
		if cached, state := c.lookup(group, userID); state == StateResolved {
			result[userID] = cached
		} else {
			misses = append(misses, userID)
		}
	}

	if len(misses) == 0 {
		return result
	}

	p := pool.New().WithMaxGoroutines(constants.NicknameCacheConfig.RefreshMaxGoroutine)
	for _, userID := range misses {
		uid := userID
		p.Go(func() {
			name := c.Resolve(ctx, group, uid)
			resultMu.Lock()
			result[uid] = name
			resultMu.Unlock()
		})
	}
	p.Wait()

	c.persist(ctx, group)
	return result
}

// RefreshGroup: 그룹 전체 멤버 목록을 디렉토리에서 다시 받아 캐시를 갱신한다.
// 갱신된 엔트리 수를 반환한다.
func (c *Cache) RefreshGroup(ctx context.Context, group string) (int, error) {
	refreshCtx, cancel := context.WithTimeout(ctx, constants.NicknameCacheConfig.RefreshTimeout)
	defer cancel()

	members, err := c.directory.ListMembers(refreshCtx, group)
	if err != nil {
		return 0, err
	}

	now := c.now()

	c.mu.Lock()
	g, ok := c.groups[group]
	if !ok {
		g = &groupCache{Entries: make(map[string]*entry)}
		c.groups[group] = g
	}
	updated := 0
	for _, m := range members {
		if m.UserID == "" || m.Nickname == "" {
			continue
		}
		g.Entries[m.UserID] = &entry{Nickname: m.Nickname, ResolvedAt: now}
		updated++
	}
	g.RefreshedAt = now
	c.mu.Unlock()

	// 그룹 이름도 함께 갱신 (실패해도 무시)
	if name, err := c.directory.LookupGroupName(refreshCtx, group); err == nil && name != "" {
		c.mu.Lock()
		g.Name = name
		g.NameAt = now
		c.mu.Unlock()
	}

	c.persist(ctx, group)

	c.logger.Info("Nickname cache refreshed",
		slog.String("group", group),
		slog.Int("members", updated),
	)
	return updated, nil
}

// GroupName: 그룹의 표시 이름을 반환한다. 캐시 미스 시 디렉토리를 조회하고,
// 실패하면 그룹 ID를 그대로 반환한다.
func (c *Cache) GroupName(ctx context.Context, group string) string {
	c.mu.RLock()
	g, ok := c.groups[group]
	if ok && g.Name != "" && c.now().Sub(g.NameAt) <= c.staleAfter {
		name := g.Name
		c.mu.RUnlock()
		return name
	}
	var cached string
	if ok {
		cached = g.Name
	}
	c.mu.RUnlock()

	lookupCtx, cancel := context.WithTimeout(ctx, constants.NicknameCacheConfig.ResolveTimeout)
	defer cancel()

	name, err := c.directory.LookupGroupName(lookupCtx, group)
	if err != nil || name == "" {
		if cached != "" {
			return cached
		}
		return group
	}

	c.mu.Lock()
	g, ok = c.groups[group]
	if !ok {
		g = &groupCache{Entries: make(map[string]*entry)}
		c.groups[group] = g
	}
	g.Name = name
	g.NameAt = c.now()
	c.mu.Unlock()

	return name
}

// GroupStatus: 그룹 캐시의 상태 요약을 반환한다.
// memberIDs 중 캐시에 닉네임이 없는 멤버는 미확인(Unresolved)으로 센다.
func (c *Cache) GroupStatus(group string, memberIDs []string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.groups[group]
	if !ok {
		return Status{Unresolved: len(memberIDs)}
	}

	status := Status{
		Entries:     len(g.Entries),
		RefreshedAt: g.RefreshedAt,
	}
	now := c.now()
	for _, e := range g.Entries {
		if now.Sub(e.ResolvedAt) > c.staleAfter {
			status.Stale++
		} else {
			status.Resolved++
		}
	}
	for _, id := range memberIDs {
		if e, ok := g.Entries[id]; !ok || e.Nickname == "" {
			status.Unresolved++
		}
	}
	return status
}
