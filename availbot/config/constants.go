package config

import "time"

// UI and display constants
const (
	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	// Board embed colors
	ListingColor = 0x57F287
	SummaryColor = 0x5865F2

	ProfilesPerPage = 5
)

// Timeouts
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	GatewayCallTimeout      = 15 * time.Second
)

// Cache settings
const (
	ProfileCacheSize       = 1024
	ProfileCacheExpiration = 2 * time.Minute
)

// Status indicators
const (
	CommentsOpenMarker = "💬"
	ExpiredLabel       = "EXPIRED"
)
