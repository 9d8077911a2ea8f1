// Package settings: 봇 운영 설정(리더보드 크기, 출력 방식, 차단 목록, 푸시 스케줄)의
// 저장소. JSON 파일 하나에 임시 파일 + rename 방식으로 원자적으로 기록한다.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
	"github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// ScheduleSettings: 일일 푸시 스케줄 설정
type ScheduleSettings struct {
	Enabled      bool                             `json:"enabled"`
	Hour         int                              `json:"hour"`
	Minute       int                              `json:"minute"`
	MissedPolicy domain.MissedPolicy              `json:"missedPolicy"`
	Groups       map[string]*domain.ScheduleGroup `json:"groups"`
}

// Document: 설정 파일 전체 구조
type Document struct {
	RankSize    int                `json:"rankSize"`
	DisplayMode domain.DisplayMode `json:"displayMode"`
	Blocked     []string           `json:"blocked,omitempty"`
	Schedule    ScheduleSettings   `json:"schedule"`
}

// Defaults: 파일이 없을 때 사용되는 초기 설정값
type Defaults struct {
	ScheduleHour   int
	ScheduleMinute int
	MissedPolicy   domain.MissedPolicy
}

// Service 는 타입이다.
type Service struct {
	filePath string
	logger   *slog.Logger
	mu       sync.RWMutex
	doc      *Document
}

// NewService: 설정 저장소를 생성하고 파일이 있으면 로드한다.
func NewService(filePath string, defaults Defaults, logger *slog.Logger) *Service {
	policy := defaults.MissedPolicy
	if !policy.IsValid() {
		policy = domain.MissedCatchUp
	}

	s := &Service{
		filePath: filePath,
		logger:   logger,
		doc: &Document{
			RankSize:    constants.RankingConfig.DefaultSize,
			DisplayMode: domain.DisplayText,
			Schedule: ScheduleSettings{
				Enabled:      false,
				Hour:         defaults.ScheduleHour,
				Minute:       defaults.ScheduleMinute,
				MissedPolicy: policy,
				Groups:       make(map[string]*domain.ScheduleGroup),
			},
		},
	}
	s.load()
	return s
}

func (s *Service) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // 파일이 없으면 기본값 사용
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Settings file unreadable, keeping defaults",
			slog.String("path", s.filePath),
			slog.Any("error", err),
		)
		return
	}

	if doc.RankSize < constants.RankingConfig.MinSize || doc.RankSize > constants.RankingConfig.MaxSize {
		doc.RankSize = constants.RankingConfig.DefaultSize
	}
	if !doc.DisplayMode.IsValid() {
		doc.DisplayMode = domain.DisplayText
	}
	if !doc.Schedule.MissedPolicy.IsValid() {
		doc.Schedule.MissedPolicy = domain.MissedCatchUp
	}
	if doc.Schedule.Groups == nil {
		doc.Schedule.Groups = make(map[string]*domain.ScheduleGroup)
	}

	s.doc = &doc
	s.logger.Info("Settings loaded",
		slog.String("path", s.filePath),
		slog.Int("rank_size", doc.RankSize),
		slog.Int("schedule_groups", len(doc.Schedule.Groups)),
	)
}

// save: 잠금을 보유한 상태에서 호출된다. 임시 파일에 쓴 뒤 rename으로 교체한다.
func (s *Service) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("settings", "marshal", err)
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewPersistenceError("settings", "mkdir", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return errors.NewPersistenceError("settings", "create_temp", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.NewPersistenceError("settings", "write_temp", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewPersistenceError("settings", "close_temp", err)
	}

	if err := os.Rename(tmpName, s.filePath); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewPersistenceError("settings", "rename", err)
	}

	return nil
}

// Snapshot: 현재 설정 전체의 복사본을 반환한다.
func (s *Service) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyDoc()
}

func (s *Service) copyDoc() Document {
	doc := *s.doc
	doc.Blocked = append([]string(nil), s.doc.Blocked...)
	doc.Schedule.Groups = make(map[string]*domain.ScheduleGroup, len(s.doc.Schedule.Groups))
	for group, entry := range s.doc.Schedule.Groups {
		copied := *entry
		doc.Schedule.Groups[group] = &copied
	}
	return doc
}

// RankSize 는 동작을 수행한다.
func (s *Service) RankSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.RankSize
}

// SetRankSize: 리더보드 크기를 설정한다. 허용 범위를 벗어나면 설정을 바꾸지 않는다.
func (s *Service) SetRankSize(size int) error {
	if size < constants.RankingConfig.MinSize || size > constants.RankingConfig.MaxSize {
		return errors.NewValidationError("rankSize",
			fmt.Sprintf("must be between %d and %d", constants.RankingConfig.MinSize, constants.RankingConfig.MaxSize))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.RankSize = size
	return s.save()
}

// DisplayMode 는 동작을 수행한다.
func (s *Service) DisplayMode() domain.DisplayMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.DisplayMode
}

// SetDisplayMode: 전역 기본 출력 방식을 설정한다.
func (s *Service) SetDisplayMode(mode domain.DisplayMode) error {
	if !mode.IsValid() {
		return errors.NewValidationError("displayMode", "must be text or image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DisplayMode = mode
	return s.save()
}

// IsBlocked: 사용자가 차단 목록에 있는지 확인한다.
func (s *Service) IsBlocked(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return util.Contains(s.doc.Blocked, userID)
}

// BlockedUsers: 차단 목록의 복사본을 반환한다.
func (s *Service) BlockedUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.doc.Blocked...)
}

// BlockUser: 사용자를 차단 목록에 추가한다. 이미 있으면 변화 없이 성공한다.
func (s *Service) BlockUser(userID string) error {
	userID = util.TrimSpace(userID)
	if userID == "" {
		return errors.NewValidationError("user", "user id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if util.Contains(s.doc.Blocked, userID) {
		return nil
	}
	s.doc.Blocked = append(s.doc.Blocked, userID)
	return s.save()
}

// UnblockUser: 사용자를 차단 목록에서 제거한다.
func (s *Service) UnblockUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]string, 0, len(s.doc.Blocked))
	removed := false
	for _, existing := range s.doc.Blocked {
		if existing == userID {
			removed = true
			continue
		}
		filtered = append(filtered, existing)
	}
	if !removed {
		return nil
	}
	s.doc.Blocked = filtered
	return s.save()
}

// Schedule: 스케줄 설정의 복사본을 반환한다.
func (s *Service) Schedule() ScheduleSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyDoc().Schedule
}

// SetScheduleTime: 일일 푸시 시각을 설정한다.
func (s *Service) SetScheduleTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return errors.NewValidationError("scheduleTime", "must be a valid HH:MM clock")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Schedule.Hour = hour
	s.doc.Schedule.Minute = minute
	return s.save()
}

// SetScheduleEnabled: 스케줄 전체를 켜거나 끈다.
func (s *Service) SetScheduleEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Schedule.Enabled = enabled
	return s.save()
}

// SetMissedPolicy: 놓친 발송 시각의 처리 방식을 설정한다.
func (s *Service) SetMissedPolicy(policy domain.MissedPolicy) error {
	if !policy.IsValid() {
		return errors.NewValidationError("missedPolicy", "must be catch_up or skip")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Schedule.MissedPolicy = policy
	return s.save()
}

// AddScheduleGroup: 푸시 대상 그룹을 추가한다. 이미 있으면 false를 반환한다.
func (s *Service) AddScheduleGroup(group string) (bool, error) {
	group = util.TrimSpace(group)
	if group == "" {
		return false, errors.NewValidationError("group", "group id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.Schedule.Groups[group]; exists {
		return false, nil
	}
	s.doc.Schedule.Groups[group] = &domain.ScheduleGroup{}
	return true, s.save()
}

// RemoveScheduleGroup: 푸시 대상 그룹을 제거한다. 없었으면 false를 반환한다.
func (s *Service) RemoveScheduleGroup(group string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doc.Schedule.Groups[group]; !exists {
		return false, nil
	}
	delete(s.doc.Schedule.Groups, group)
	return true, s.save()
}

// SetGroupMode: 특정 그룹의 출력 방식을 설정한다. 그룹이 스케줄에 없으면 에러.
func (s *Service) SetGroupMode(group string, mode domain.DisplayMode) error {
	if !mode.IsValid() {
		return errors.NewValidationError("displayMode", "must be text or image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.doc.Schedule.Groups[group]
	if !exists {
		return errors.NewValidationError("group", "group is not scheduled")
	}
	entry.Mode = mode
	return s.save()
}

// MarkFired: 그룹의 마지막 발송 날짜를 기록한다. 재기동 후에도 하루 1회 발송을 보장한다.
func (s *Service) MarkFired(group, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.doc.Schedule.Groups[group]
	if !exists {
		return errors.NewValidationError("group", "group is not scheduled")
	}
	entry.LastFired = day
	return s.save()
}

// LastFired: 그룹의 마지막 발송 날짜 키를 반환한다.
func (s *Service) LastFired(group string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, exists := s.doc.Schedule.Groups[group]; exists {
		return entry.LastFired
	}
	return ""
}
