package config

import (
	"strings"
	"time"
)

// Built-in defaults applied after all sources are merged. The app must come
// up with zero configuration: offline-only, in-process queue file, loopback
// API.
const (
	defaultEnvironment    = "master"
	defaultDeliveryURL    = "https://cdn.contentful.com"
	defaultManagementURL  = "https://api.contentful.com"
	defaultRequestTimeout = 15 * time.Second
	defaultServerTimeout  = 30 * time.Second
	defaultHTTPAddress    = "127.0.0.1:8711"
	defaultQueuePath      = "sync-queue.json"
	defaultReplayAttempts = 3
)

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Remote.Environment == "" {
		cfg.Remote.Environment = defaultEnvironment
	}
	if cfg.Remote.DeliveryURL == "" {
		cfg.Remote.DeliveryURL = defaultDeliveryURL
	}
	if cfg.Remote.ManagementURL == "" {
		cfg.Remote.ManagementURL = defaultManagementURL
	}
	if cfg.Remote.RequestTimeout == 0 {
		cfg.Remote.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Server.HTTPAddress == "" {
		cfg.Server.HTTPAddress = defaultHTTPAddress
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaultServerTimeout
	}
	if cfg.Storage.Queue.Path == "" {
		cfg.Storage.Queue.Path = defaultQueuePath
	}
	if cfg.Workers.ReplayMaxAttempts == 0 {
		cfg.Workers.ReplayMaxAttempts = defaultReplayAttempts
	}
}

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the rest of the application relies on. Remote credentials are
// deliberately not required: the store runs fully offline without them.
func (cfg *StructuredConfig) validate() error {
	if !strings.Contains(cfg.Server.HTTPAddress, ":") {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.Queue.Path == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Workers.ReplayInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
