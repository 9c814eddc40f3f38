package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations for the optional config file.
type StructuredJSONConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Remote struct {
		SpaceID         string   `json:"space_id"`
		Environment     string   `json:"environment"`
		DeliveryToken   string   `json:"delivery_token"`
		ManagementToken string   `json:"management_token"`
		DeliveryURL     string   `json:"delivery_url"`
		ManagementURL   string   `json:"management_url"`
		RequestTimeout  Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Storage struct {
		Queue struct {
			Path string `json:"path"`
		} `json:"queue,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Workers struct {
		ReplayInterval    Duration `json:"replay_interval"`
		ReplayMaxAttempts uint64   `json:"replay_max_attempts"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Remote: Remote{
			SpaceID:         jsonCfg.Remote.SpaceID,
			Environment:     jsonCfg.Remote.Environment,
			DeliveryToken:   jsonCfg.Remote.DeliveryToken,
			ManagementToken: jsonCfg.Remote.ManagementToken,
			DeliveryURL:     jsonCfg.Remote.DeliveryURL,
			ManagementURL:   jsonCfg.Remote.ManagementURL,
			RequestTimeout:  time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Storage: Storage{
			Queue: Queue{
				Path: jsonCfg.Storage.Queue.Path,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Workers: Workers{
			ReplayInterval:    time.Duration(jsonCfg.Workers.ReplayInterval),
			ReplayMaxAttempts: jsonCfg.Workers.ReplayMaxAttempts,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
