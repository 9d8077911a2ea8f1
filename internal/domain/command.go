package domain

// CommandType 는 타입이다.
type CommandType string

// CommandType 상수 목록.
const (
	// CommandRank 는 상수다.
	CommandRank         CommandType = "rank"
	CommandRankConfig   CommandType = "rank_config"
	CommandRankClear    CommandType = "rank_clear"
	CommandCacheRefresh CommandType = "cache_refresh"
	CommandCacheStatus  CommandType = "cache_status"
	CommandPush         CommandType = "push"
	CommandHelp         CommandType = "help"
	CommandUnknown      CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

// IsValid 는 동작을 수행한다.
func (c CommandType) IsValid() bool {
	switch c {
	case CommandRank, CommandRankConfig, CommandRankClear,
		CommandCacheRefresh, CommandCacheStatus,
		CommandPush, CommandHelp, CommandUnknown:
		return true
	default:
		return false
	}
}
