package constants

import "time"

const (
	CHANNEL_SIZE  = 100   // per-session outbound buffer and broker channel size
	FILE_MAX_SIZE = 50000 // max upload size (KB)
	REDIS_TIMEOUT = 1     // cache entry lifetime (minutes)

	// DEFAULT_PAGE_SIZE is the message page size when the client does not ask for one.
	DEFAULT_PAGE_SIZE = 50
	MAX_PAGE_SIZE     = 200

	// MUTE_DURATION is how long a conversation stays muted once a participant mutes it.
	MUTE_DURATION = 24 * time.Hour

	// DELETED_PLACEHOLDER replaces the content of a soft-deleted message.
	DELETED_PLACEHOLDER = "This message was deleted"

	// DEFAULT_THEME and DEFAULT_EMOJI are the initial conversation settings.
	DEFAULT_THEME = "default"
	DEFAULT_EMOJI = "❤️"
)
