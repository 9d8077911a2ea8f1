// Package pushlog: 일일 푸시 발송 이력을 데이터베이스에 기록하는 저장소.
package pushlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

// Record: 푸시 발송 1건의 이력
type Record struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   string         `gorm:"size:64;not null;index:idx_push_group_day" json:"groupId"`
	Day       string         `gorm:"size:10;not null;index:idx_push_group_day" json:"day"`
	Trigger   string         `gorm:"size:16;not null" json:"trigger"`
	Mode      string         `gorm:"size:8;not null" json:"mode"`
	Entries   datatypes.JSON `gorm:"type:jsonb" json:"entries"`
	Success   bool           `gorm:"not null" json:"success"`
	ErrorText string         `gorm:"size:512" json:"errorText,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TableName 는 동작을 수행한다.
func (Record) TableName() string {
	return "push_records"
}

// Repository: 푸시 이력 저장소
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenPostgres: PostgreSQL 연결을 생성하고 커넥션 풀을 설정한다.
func OpenPostgres(host string, port int, user, password, database string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, database)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
	sqlDB.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)

	return db, nil
}

// NewRepository: 저장소를 생성하고 스키마를 마이그레이션한다.
func NewRepository(db *gorm.DB, logger *slog.Logger) (*Repository, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate push_records: %w", err)
	}
	return &Repository{db: db, logger: logger}, nil
}

// Append: 발송 시도 1건을 기록한다. 리더보드 항목은 JSON으로 직렬화된다.
func (r *Repository) Append(ctx context.Context, group, day string, trigger domain.PushTrigger, mode domain.DisplayMode, entries []domain.RankEntry, pushErr error) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return errors.NewPersistenceError("pushlog", "marshal", err)
	}

	record := &Record{
		GroupID: group,
		Day:     day,
		Trigger: string(trigger),
		Mode:    string(mode),
		Entries: datatypes.JSON(payload),
		Success: pushErr == nil,
	}
	if pushErr != nil {
		record.ErrorText = pushErr.Error()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.NewPersistenceError("pushlog", "insert", err)
	}

	r.logger.Debug("Push record appended",
		slog.String("group", group),
		slog.String("day", day),
		slog.Bool("success", record.Success),
	)
	return nil
}

// Recent: 그룹의 최근 발송 이력을 최신순으로 반환한다.
func (r *Repository) Recent(ctx context.Context, group string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []Record
	err := r.db.WithContext(ctx).
		Where("group_id = ?", group).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errors.NewPersistenceError("pushlog", "query_recent", err)
	}
	return records, nil
}

// LastSuccess: 그룹의 가장 최근 성공 발송을 반환한다. 없으면 nil.
func (r *Repository) LastSuccess(ctx context.Context, group string) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND success = ?", group, true).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.NewPersistenceError("pushlog", "query_last_success", err)
	}
	return &record, nil
}

// FailureCount: 특정 날짜의 실패 발송 횟수를 반환한다.
func (r *Repository) FailureCount(ctx context.Context, group, day string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("group_id = ? AND day = ? AND success = ?", group, day, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.NewPersistenceError("pushlog", "count_failures", err)
	}
	return count, nil
}
