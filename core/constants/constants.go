package constants

import "time"

const (
	ContextTokenData  = "token_data"
	ContextOwnerToken = "owner_token"

	HeaderOwnerToken = "X-Owner-Token"
	HeaderCalendar   = "X-Calendar-Token"

	DefaultTimeout = 15 * time.Second
)

// Database pool
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 10
	DatabaseConnMaxLifetime = 30 // minutes
)

// Schedule limits
const (
	EventNameMaxLength       = 30
	EventMemoMaxLength       = 300
	ParticipantNameMaxLength = 30
	OwnerTokenLength         = 32
	SlotDateLayout           = "2006-01-02"
	SlotTimeLayout           = "15:04"
)

// ConfirmationAttempts bounds retries of a confirm that lost a race against another confirm.
const ConfirmationAttempts = 2

// Cache
const (
	EventCachePrefix = "event:"
	EventCacheTTL    = 10 * time.Minute
)

// EventCacheRedeleteDelay is how long after a write the snapshot is deleted a second time,
// dropping anything a concurrent read cached from pre-commit state.
const EventCacheRedeleteDelay = 500 * time.Millisecond

// Upload
const (
	IconMaxBytes  = 5 << 20
	IconKeyPrefix = "icons/"
)

// Calendar
const (
	CalendarEventDuration = time.Hour
	CalendarProdID        = "-//go-schedule-api//schedule//EN"
	GoogleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	CalendarHTTPTimeout   = 30 * time.Second
)
