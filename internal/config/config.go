package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/groupstats-kakao-bot-go/internal/constants"
	"github.com/kapu/groupstats-kakao-bot-go/internal/domain"
	"github.com/kapu/groupstats-kakao-bot-go/internal/util"
)

// Config: 그룹 통계 봇의 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	Iris     IrisConfig
	Server   ServerConfig
	Stats    StatsConfig
	Schedule ScheduleConfig
	Valkey   ValkeyConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
	Bot      BotConfig
	Render   RenderConfig
	Version  string
}

// IrisConfig: Iris 메시지 서버 연결 및 멤버 디렉토리 조회 설정
type IrisConfig struct {
	BaseURL string
}

// ServerConfig: 상태 조회 API 서버 설정
type ServerConfig struct {
	Port int
}

// StatsConfig: 발언 통계 집계 관련 설정 (타임존, 주 시작 요일, 설정 파일 경로)
type StatsConfig struct {
	Timezone     string
	WeekStart    time.Weekday
	SettingsPath string
}

// ScheduleConfig: 일일 푸시 스케줄 기본값 설정
type ScheduleConfig struct {
	DefaultHour   int
	DefaultMinute int
	MissedPolicy  domain.MissedPolicy
	TickInterval  time.Duration
}

// ValkeyConfig: 카운터/캐시 영속화 용도의 Valkey 연결 설정
type ValkeyConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PostgresConfig: 푸시 이력 데이터베이스(PostgreSQL) 연결 설정
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// LoggingConfig: 애플리케이션 로그 설정 (레벨, 디렉토리, 로테이션 정책)
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// BotConfig: 봇의 기본 동작(명령어 접두사, 자기 자신 식별자) 설정
type BotConfig struct {
	Prefix   string
	SelfUser string
}

// RenderConfig: 이미지 리더보드 렌더링 설정
// FontPath가 비어 있으면 내장 비트맵 폰트를 사용한다. (한글 미지원)
type RenderConfig struct {
	FontPath string
}

// Load: .env 파일 및 환경 변수로부터 설정을 로드하고, 기본값을 적용하여 Config 객체를 생성한다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaultHour, defaultMinute, err := util.ParseClock(getEnv("SCHEDULE_DEFAULT_TIME", "21:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_DEFAULT_TIME: %w", err)
	}

	cfg := &Config{
		Iris: IrisConfig{
			BaseURL: getEnv("IRIS_BASE_URL", "http://localhost:3000"),
		},
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 30011),
		},
		Stats: StatsConfig{
			Timezone:     getEnv("STATS_TIMEZONE", "Asia/Seoul"),
			WeekStart:    parseWeekStart(getEnv("STATS_WEEK_START", "monday")),
			SettingsPath: getEnv("STATS_SETTINGS_PATH", "data/settings.json"),
		},
		Schedule: ScheduleConfig{
			DefaultHour:   defaultHour,
			DefaultMinute: defaultMinute,
			MissedPolicy:  parseMissedPolicy(getEnv("SCHEDULE_MISSED_POLICY", "catch_up")),
			TickInterval:  time.Duration(getEnvInt("SCHEDULE_TICK_SECONDS", 60)) * time.Second,
		},
		Valkey: ValkeyConfig{
			Host:     getEnv("CACHE_HOST", "localhost"),
			Port:     getEnvInt("CACHE_PORT", 6379),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("POSTGRES_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("POSTGRES_USER", constants.DatabaseDefaults.User),
			Password: getEnv("POSTGRES_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("POSTGRES_DB", constants.DatabaseDefaults.Database),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", "logs"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Bot: BotConfig{
			Prefix:   getEnv("BOT_PREFIX", "!"),
			SelfUser: util.TrimSpace(getEnv("BOT_SELF_USER", "iris")),
		},
		Render: RenderConfig{
			FontPath: util.TrimSpace(getEnv("RENDER_FONT_PATH", "")),
		},
		Version: util.TrimSpace(getEnv("APP_VERSION", "1.0.0-go")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값이 누락되지 않았는지 검증한다.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Iris.BaseURL == "" {
		return fmt.Errorf("IRIS_BASE_URL is required")
	}
	if c.Stats.SettingsPath == "" {
		return fmt.Errorf("STATS_SETTINGS_PATH is required")
	}
	if !c.Schedule.MissedPolicy.IsValid() {
		return fmt.Errorf("SCHEDULE_MISSED_POLICY must be catch_up or skip")
	}
	if c.Schedule.TickInterval <= 0 {
		return fmt.Errorf("SCHEDULE_TICK_SECONDS must be positive")
	}
	return nil
}

func parseWeekStart(raw string) time.Weekday {
	switch util.Normalize(raw) {
	case "sunday", "sun":
		return time.Sunday
	case "saturday", "sat":
		return time.Saturday
	default:
		return time.Monday
	}
}

func parseMissedPolicy(raw string) domain.MissedPolicy {
	p := domain.MissedPolicy(util.Normalize(raw))
	if !p.IsValid() {
		return domain.MissedCatchUp
	}
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
