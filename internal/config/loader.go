// -*- mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/pelletier/go-toml"
)

// LoadConfig loads the local TOML configuration file, resolved the same
// way the donor SDK resolves it: profile and confDir pick a directory,
// common.ConfigFileName names the file within it.
func LoadConfig(profile string, confDir string) (*Config, error) {
	fmt.Fprintf(os.Stdout, "Init: profile: %s confDir: %s\n", profile, confDir)
	return loadConfigFromFile(profile, confDir)
}

func loadConfigFromFile(profile string, confDir string) (config *Config, err error) {
	if len(confDir) == 0 {
		confDir = common.ConfigDirectory
	}
	if len(profile) > 0 {
		confDir = path.Join(confDir, profile)
	}

	configPath := path.Join(confDir, common.ConfigFileName)
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not create absolute path to load configuration: %s; %v", configPath, err)
	}
	fmt.Fprintf(os.Stdout, "Loading configuration from: %s\n", absPath)

	// the toml package can panic on malformed input; recover so a bad
	// config file surfaces as an error instead of crashing the process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not load configuration file; invalid TOML (%s): %v", configPath, r)
		}
	}()

	config = defaultConfig()
	contents, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration file (%s): %v", configPath, err)
	}

	if err = toml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("unable to parse configuration file (%s): %v", configPath, err)
	}

	return config, nil
}

// defaultConfig seeds the values that are safe to run with out of the box:
// auto-load on, diagnostics and registry off, a modest device message
// queue.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceInfo{
			SpecVersion:            1,
			DeviceMessageQueueSize: 100,
			ConnectRetries:         3,
			TimeoutMillis:          5000,
		},
		Logging: LoggingInfo{
			LogLevel: "INFO",
		},
		ManagerSet: ManagerSetInfo{
			AutoLoad:   true,
			SearchDirs: []string{"./plugins"},
		},
	}
}
