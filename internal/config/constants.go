package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 75 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Ping timeout for startup checks
const DBPingTimeout = 5 * time.Second

// Audit sink writes get their own deadline so a slow events table never holds a request
const AuditWriteTimeout = 2 * time.Second

// Background job intervals
const CleanupJobInterval = time.Hour

// Global per-IP request budget applied in front of every route
const GlobalRateLimitPerMin = 300
