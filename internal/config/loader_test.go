// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := loadConfigFromFile("", "./test")
	if err != nil {
		t.Fatalf("fail to load config from file, %v", err)
	}

	if cfg.Service.SpecVersion != 2 {
		t.Errorf("expected SpecVersion 2, got %d", cfg.Service.SpecVersion)
	}
	if !cfg.ManagerSet.AutoLoad {
		t.Errorf("expected ManagerSet.AutoLoad true")
	}
	if len(cfg.ManagerSet.SearchDirs) != 1 || cfg.ManagerSet.SearchDirs[0] != "/opt/device-manager/plugins" {
		t.Errorf("unexpected SearchDirs: %v", cfg.ManagerSet.SearchDirs)
	}
	if cfg.Serial.BaudRate != 115200 {
		t.Errorf("expected BaudRate 115200, got %d", cfg.Serial.BaudRate)
	}
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	if _, err := loadConfigFromFile("", "./does-not-exist"); err == nil {
		t.Errorf("expected an error for a missing configuration file")
	}
}
