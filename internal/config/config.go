package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for shelflife.
// It is populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings.
	App App `envPrefix:"APP_"`

	// Remote holds the CMS connection settings (space, tokens, endpoints).
	Remote Remote `envPrefix:"REMOTE_"`

	// Storage holds the retry-queue persistence settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the local HTTP surface settings consumed by the desktop
	// shell.
	Server Server `envPrefix:"SERVER_"`

	// Workers holds background replay job settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file. When
	// non-empty, the file is parsed and merged on top of the values already
	// loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Remote holds connection settings for the headless CMS acting as the remote
// store.
type Remote struct {
	// SpaceID is the CMS space identifier.
	// Env: REMOTE_SPACE_ID
	SpaceID string `env:"SPACE_ID"`

	// Environment is the CMS environment name (defaults to "master").
	// Env: REMOTE_ENVIRONMENT
	Environment string `env:"ENVIRONMENT"`

	// DeliveryToken authorizes read access (entry listing at bootstrap).
	// Env: REMOTE_DELIVERY_TOKEN
	DeliveryToken string `env:"DELIVERY_TOKEN"`

	// ManagementToken authorizes write access (create/update/delete). When
	// absent or left at the documented placeholder, every write attempt is
	// short-circuited into the retry queue.
	// Env: REMOTE_MANAGEMENT_TOKEN
	ManagementToken string `env:"MANAGEMENT_TOKEN"`

	// DeliveryURL is the base URL of the read (delivery) API.
	// Env: REMOTE_DELIVERY_URL
	DeliveryURL string `env:"DELIVERY_URL"`

	// ManagementURL is the base URL of the write (management) API.
	// Env: REMOTE_MANAGEMENT_URL
	ManagementURL string `env:"MANAGEMENT_URL"`

	// RequestTimeout is the per-request timeout for all CMS calls.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds the retry-queue persistence settings.
type Storage struct {
	Queue Queue `envPrefix:"QUEUE_"`
}

// Queue selects and configures the durable retry-queue backend.
type Queue struct {
	// Path is where the queue lives. A path ending in .db or .sqlite selects
	// the SQLite backend; anything else is a JSON snapshot file. The special
	// value ":memory:" keeps the queue in memory only.
	// Env: STORAGE_QUEUE_PATH
	Path string `env:"PATH"`
}

// Server holds the local HTTP surface settings.
type Server struct {
	// HTTPAddress is the TCP address the local API listens on, host:port.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds background replay job settings.
type Workers struct {
	// ReplayInterval is how often pending queue entries are replayed against
	// the CMS. Zero disables automatic replay (manual reconciliation only).
	// Env: WORKERS_REPLAY_INTERVAL
	ReplayInterval time.Duration `env:"REPLAY_INTERVAL"`

	// ReplayMaxAttempts caps the retries for a single entry within one replay
	// cycle.
	// Env: WORKERS_REPLAY_MAX_ATTEMPTS
	ReplayMaxAttempts uint64 `env:"REPLAY_MAX_ATTEMPTS"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (first non-zero value wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Unset fields fall back to built-in defaults. Returns a fully populated
// *StructuredConfig or an error if any source fails to load or the final
// config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
