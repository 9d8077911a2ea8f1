package constants

import "time"

// RankingConfig 는 랭킹 집계 기본값이다.
var RankingConfig = struct {
	DefaultSize int
	MinSize     int
	MaxSize     int
}{
	DefaultSize: 20,  // 기본 리더보드 크기
	MinSize:     1,   // 설정 가능한 최소 크기
	MaxSize:     100, // 설정 가능한 최대 크기
}

// CounterConfig 는 카운터 저장소 설정이다.
var CounterConfig = struct {
	PersistTimeout time.Duration
	ReloadTimeout  time.Duration
	KeyPrefix      string
}{
	PersistTimeout: 3 * time.Second,  // write-behind 단건 기록 타임아웃
	ReloadTimeout:  30 * time.Second, // 기동 시 전체 리로드 타임아웃
	KeyPrefix:      "stats:counter",
}

// NicknameCacheConfig 는 멤버 닉네임 캐시 설정이다.
var NicknameCacheConfig = struct {
	StaleAfter          time.Duration
	ResolveTimeout      time.Duration
	RefreshTimeout      time.Duration
	RefreshMaxGoroutine int
	SnapshotKeyPrefix   string
	SnapshotTTL         time.Duration
}{
	StaleAfter:          6 * time.Hour,    // 이 시간이 지난 엔트리는 Stale
	ResolveTimeout:      2 * time.Second,  // 단건 조회 시 디렉토리 대기 한도
	RefreshTimeout:      30 * time.Second, // 그룹 전체 갱신 한도
	RefreshMaxGoroutine: 10,               // 개별 조회 폴백 시 동시 실행 수
	SnapshotKeyPrefix:   "stats:nickname",
	SnapshotTTL:         7 * 24 * time.Hour,
}

// SchedulerConfig 는 일일 푸시 스케줄러 설정이다.
var SchedulerConfig = struct {
	TickInterval time.Duration
	PushTimeout  time.Duration
}{
	TickInterval: 1 * time.Minute,  // 분 단위 틱
	PushTimeout:  30 * time.Second, // 단일 그룹 푸시 한도
}

// DirectoryConfig 는 멤버 디렉토리(Iris) 호출 설정이다.
var DirectoryConfig = struct {
	RequestTimeout      time.Duration
	RatePerSecond       float64
	RateBurst           int
	FailureThreshold    int
	ResetTimeout        time.Duration
	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}{
	RequestTimeout:      5 * time.Second,
	RatePerSecond:       10,
	RateBurst:           20,
	FailureThreshold:    3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:        30 * time.Second, // 재시도 대기 시간
	MaxConnsPerHost:     20,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     30 * time.Second,
}

// ValkeyConfig 는 Valkey 클라이언트 설정이다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
}{
	ReadyTimeout:      5 * time.Second,
	BlockingPoolSize:  100,
	PipelineMultiplex: 4,
}

// DatabaseConfig 는 데이터베이스 연결 설정이다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
}

// DatabaseDefaults 는 PostgreSQL 기본값이다. (env 미설정 시)
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     5432,
	User:     "stats_user",
	Password: "stats_password",
	Database: "group_stats_db",
}

// ServerTimeout 는 HTTP 서버 타임아웃이다.
var ServerTimeout = struct {
	ReadHeader time.Duration
	Idle       time.Duration
}{
	ReadHeader: 5 * time.Second,
	Idle:       60 * time.Second,
}

// ServerConfig 는 서버 기본 설정이다.
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
}

// CORSConfig 는 CORS 기본 설정이다.
var CORSConfig = struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}{
	AllowOrigins: []string{"http://localhost:5173"},
	AllowMethods: []string{"GET", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
}

// RequestTimeout 는 HTTP 요청 및 서비스 타임아웃 설정
var RequestTimeout = struct {
	BotCommand        time.Duration
	WebhookProcessing time.Duration
	APIRequest        time.Duration
	DatabasePing      time.Duration
}{
	BotCommand:        10 * time.Second,
	WebhookProcessing: 30 * time.Second,
	APIRequest:        10 * time.Second,
	DatabasePing:      5 * time.Second,
}

// RenderConfig 는 이미지 리더보드 렌더링 설정이다.
var RenderConfig = struct {
	Width        int
	RowHeight    int
	HeaderHeight int
	Padding      int
	MaxRows      int
	FontSize     float64
}{
	Width:        480,
	RowHeight:    22,
	HeaderHeight: 40,
	Padding:      16,
	MaxRows:      50, // 이미지 모드에서 그릴 수 있는 최대 행 수
	FontSize:     14, // LoadFont로 올린 TTF/OTF 폰트의 포인트 크기
}

// AppTimeout 는 앱 기동/종료 타임아웃 설정이다.
var AppTimeout = struct {
	Startup  time.Duration
	Shutdown time.Duration
}{
	Startup:  30 * time.Second,
	Shutdown: 10 * time.Second,
}
