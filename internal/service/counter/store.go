// Package counter: 그룹별/사용자별 일 단위 발언 수를 기록하는 카운터 저장소.
// 인메모리 상태가 단일 기록자 기준의 원본이며, Valkey 해시에 write-behind로 영속화한다.
package counter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/service/cache"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	"github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// UserCount: 특정 사용자의 집계 결과 (최초 발언 순서 유지용)
type UserCount struct {
	UserID string
	Count  int64
}

type userSeries struct {
	days  map[string]int64 // 날짜 키 -> 발언 수
	total int64
}

type groupSeries struct {
	users map[string]*userSeries
	order []string // 그룹 내 최초 발언 순서
}

// Store: 카운터 저장소. 증가 연산은 인메모리에 먼저 반영되고,
// Valkey 기록 실패는 *PersistenceError로 전달될 뿐 집계를 막지 않는다.
type Store struct {
	mu     sync.RWMutex
	groups map[string]*groupSeries

	cache  *cache.Service
	loc    *time.Location
	logger *slog.Logger
}

// NewStore: 새로운 카운터 저장소를 생성한다.
func NewStore(cacheSvc *cache.Service, loc *time.Location, logger *slog.Logger) *Store {
	return &Store{
		groups: make(map[string]*groupSeries),
		cache:  cacheSvc,
		loc:    loc,
		logger: logger,
	}
}

func counterKey(group, day string) string {
	return fmt.Sprintf("%s:%s:%s", constants.CounterConfig.KeyPrefix, group, day)
}

// Load: Valkey에 영속화된 카운터 해시를 모두 읽어 인메모리 상태를 복원한다.
// 재기동 직후 한 번 호출된다.
func (s *Store) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CounterConfig.ReloadTimeout)
	defer cancel()

	pattern := constants.CounterConfig.KeyPrefix + ":*"
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return errors.NewPersistenceError("counter", "load_keys", err)
	}

	// 날짜 오름차순으로 복원하여 최초 발언 순서를 재현 가능하게 유지한다.
	sort.Strings(keys)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = make(map[string]*groupSeries)
	loaded := 0

	for _, key := range keys {
		group, day, ok := parseCounterKey(key)
		if !ok {
			s.logger.Warn("Skipping malformed counter key", slog.String("key", key))
			continue
		}

		fields, err := s.cache.HGetAll(ctx, key)
		if err != nil {
			return errors.NewPersistenceError("counter", "load_hash", err)
		}

		userIDs := make([]string, 0, len(fields))
		for userID := range fields {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)

		for _, userID := range userIDs {
			count, err := strconv.ParseInt(fields[userID], 10, 64)
			if err != nil || count <= 0 {
				continue
			}
			s.add(group, userID, day, count)
			loaded++
		}
	}

	s.logger.Info("Counter store loaded",
		slog.Int("groups", len(s.groups)),
		slog.Int("series", loaded),
	)
	return nil
}

// add: 잠금을 보유한 상태에서 시리즈에 값을 더한다.
func (s *Store) add(group, userID, day string, delta int64) int64 {
	g, ok := s.groups[group]
	if !ok {
		g = &groupSeries{users: make(map[string]*userSeries)}
		s.groups[group] = g
	}

	u, ok := g.users[userID]
	if !ok {
		u = &userSeries{days: make(map[string]int64)}
		g.users[userID] = u
		g.order = append(g.order, userID)
	}

	u.days[day] += delta
	u.total += delta
	return u.days[day]
}

// Increment: 메시지 1건을 기록한다. 반환값은 해당 날짜의 증가 후 카운트.
// Valkey 기록 실패 시에도 인메모리 카운트는 유지되며 *PersistenceError를 반환한다.
func (s *Store) Increment(ctx context.Context, group, userID string, at time.Time) (int64, error) {
	if group == "" || userID == "" {
		return 0, errors.NewValidationError("user", "group and user must not be empty")
	}

	day := util.DayKey(at, s.loc)

	s.mu.Lock()
	count := s.add(group, userID, day, 1)
	s.mu.Unlock()

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CounterConfig.PersistTimeout)
	defer cancel()

	if _, err := s.cache.HIncrBy(persistCtx, counterKey(group, day), userID, 1); err != nil {
		return count, errors.NewPersistenceError("counter", "hincrby", err)
	}

	return count, nil
}

// WindowCounts: startDay(포함) 이후의 사용자별 합계를 최초 발언 순서로 반환한다.
// bounded=false면 전체 누적을 반환한다. 합계가 0인 사용자는 제외된다.
func (s *Store) WindowCounts(group, startDay string, bounded bool) []UserCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[group]
	if !ok {
		return nil
	}

	result := make([]UserCount, 0, len(g.order))
	for _, userID := range g.order {
		u := g.users[userID]

		var sum int64
		if bounded {
			for day, count := range u.days {
				if day >= startDay {
					sum += count
				}
			}
		} else {
			sum = u.total
		}

		if sum > 0 {
			result = append(result, UserCount{UserID: userID, Count: sum})
		}
	}

	return result
}

// UserCount: 특정 사용자의 범위 내 발언 수를 반환한다.
func (s *Store) UserCount(group, userID, startDay string, bounded bool) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[group]
	if !ok {
		return 0
	}
	u, ok := g.users[userID]
	if !ok {
		return 0
	}

	if !bounded {
		return u.total
	}

	var sum int64
	for day, count := range u.days {
		if day >= startDay {
			sum += count
		}
	}
	return sum
}

// ClearGroup: 그룹의 모든 카운터를 인메모리와 Valkey 양쪽에서 삭제한다.
func (s *Store) ClearGroup(ctx context.Context, group string) error {
	s.mu.Lock()
	delete(s.groups, group)
	s.mu.Unlock()

	pattern := fmt.Sprintf("%s:%s:*", constants.CounterConfig.KeyPrefix, group)
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		return errors.NewPersistenceError("counter", "clear_keys", err)
	}
	if len(keys) == 0 {
		return nil
	}

	deleted, err := s.cache.DelMany(ctx, keys)
	if err != nil {
		return errors.NewPersistenceError("counter", "clear_del", err)
	}

	s.logger.Info("Counter group cleared",
		slog.String("group", group),
		slog.Int64("keys_deleted", deleted),
	)
	return nil
}

// Groups: 기록이 존재하는 그룹 ID 목록을 반환한다.
func (s *Store) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]string, 0, len(s.groups))
	for group := range s.groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

// MemberCount: 그룹 내 발언 기록이 있는 사용자 수를 반환한다.
func (s *Store) MemberCount(group string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[group]
	if !ok {
		return 0
	}
	return len(g.users)
}

// parseCounterKey: "stats:counter:{group}:{day}" 형식의 키를 분해한다.
func parseCounterKey(key string) (group, day string, ok bool) {
	prefix := constants.CounterConfig.KeyPrefix + ":"
	if !strings.HasPrefix(key, prefix) {
		return "", "", false
	}

	rest := key[len(prefix):]
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}

	group = rest[:idx]
	day = rest[idx+1:]
	if _, err := time.Parse(util.DayKeyLayout, day); err != nil {
		return "", "", false
	}
	return group, day, true
}
