// Package config loads netcore's process configuration from a JSON file and
// applies environment-variable overrides, the way chwell's core::Config
// loaded a handful of fields plus the gateway's GATEWAY_PORT/BACKEND_HOST/
// BACKEND_PORT overrides.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"fmt"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/chwellgo/netcore/cmn/nlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage selects and configures the embedded KV backend (see package storage).
type Storage struct {
	Type string `json:"type"` // "memory" | "buntdb"
	Path string `json:"path"` // buntdb file path; ignored for "memory"
}

// Config is the full set of fields exercised by netcore's components.
type Config struct {
	ListenPort     int `json:"listen_port"`
	WorkerThreads  int `json:"worker_threads"`
	HTTPSubPort    int `json:"http_sub_port"`

	HeartbeatIntervalSeconds int `json:"heartbeat_interval_seconds"`
	RateLimitPerSecond       int `json:"rate_limit_per_second"`
	RateLimitBurst           int `json:"rate_limit_burst"`

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`

	BackendHost string `json:"backend_host"`
	BackendPort int     `json:"backend_port"`

	RPCJWTSecret string `json:"rpc_jwt_secret"`

	Storage Storage `json:"storage"`
}

// Default returns a Config populated with the same defaults as chwell's
// core::Config constructor (listen_port=9000, worker_threads=4), plus
// defaults for netcore's SPEC_FULL additions.
func Default() *Config {
	return &Config{
		ListenPort:               9000,
		WorkerThreads:            4,
		HTTPSubPort:              9001,
		HeartbeatIntervalSeconds: 30,
		RateLimitPerSecond:       50,
		RateLimitBurst:           10,
		NodeType:                 "gateway",
		BackendHost:              "127.0.0.1",
		BackendPort:              9100,
		Storage:                  Storage{Type: "memory"},
	}
}

// Load reads path as JSON into a Config seeded with Default(), then applies
// the GATEWAY_PORT / BACKEND_HOST / BACKEND_PORT environment overrides.
// A missing file is not an error: the defaults (plus env overrides) stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ListenPort = p
		} else {
			nlog.Warningf("config: invalid GATEWAY_PORT %q: %v", v, err)
		}
	}
	if v := os.Getenv("BACKEND_HOST"); v != "" {
		cfg.BackendHost = v
	}
	if v := os.Getenv("BACKEND_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.BackendPort = p
		} else {
			nlog.Warningf("config: invalid BACKEND_PORT %q: %v", v, err)
		}
	}
}
