package redis

import (
	"fmt"

	"github.com/mcoot/ghoulgame/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "ghoul"

// gameRecordKey returns the Redis key for an archived GameRecord
func gameRecordKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gamesByEndIndexKey returns the Redis key for the ZSET of game ids scored by end time
func gamesByEndIndexKey() string {
	return fmt.Sprintf("%s:idx:games_by_end", keyPrefix)
}
