// -*- mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package config

// Config is the root of the TOML configuration file, decoded by LoadConfig.
// Field groups mirror the donor SDK's configuration.toml shape (Service,
// Logging, Clients) generalized to this core's concerns (no Core
// Data/Metadata clients here — those were an EdgeX-specific dependency this
// domain has no analog for).
type Config struct {
	Service     ServiceInfo
	Logging     LoggingInfo
	ManagerSet  ManagerSetInfo
	Rescan      RescanInfo
	Diagnostics DiagnosticsInfo
	Registry    RegistryInfo
	Serial      SerialInfo
	Modbus      ModbusInfo
}

// ServiceInfo carries the spec version negotiated at handshake (read by
// the Registry when filtering AllowedMessageTypes) and
// DeviceMessageQueueSize, the buffer capacity of the Device Manager's
// outbound event stream.
type ServiceInfo struct {
	SpecVersion            uint
	DeviceMessageQueueSize int
	ConnectRetries         int
	TimeoutMillis          int
}

// LoggingInfo configures the LoggingClient built in internal/common.
type LoggingInfo struct {
	EnableRemote bool
	File         string
	LogLevel     string
}

// ManagerSetInfo configures subtype-manager auto-load (SPEC_FULL.md §11.4).
type ManagerSetInfo struct {
	AutoLoad    bool
	SearchDirs  []string
}

// RescanInfo configures the optional periodic re-discovery tick
// (SPEC_FULL.md §11.6). Schedule is a standard cron.v2 expression.
type RescanInfo struct {
	Enabled  bool
	Schedule string
}

// DiagnosticsInfo configures the optional loopback debug HTTP surface
// (SPEC_FULL.md §11.3).
type DiagnosticsInfo struct {
	Enabled       bool
	ListenAddress string
}

// RegistryInfo configures the optional Consul-compatible health
// registration performed by cmd/device-manager at startup
// (SPEC_FULL.md §11.5). The Device Manager core never reads this.
type RegistryInfo struct {
	Enabled bool
	Host    string
	Port    int
}

// SerialInfo configures the serial subtype manager.
type SerialInfo struct {
	Ports    []string
	BaudRate int
}

// ModbusInfo configures the Modbus subtype manager.
type ModbusInfo struct {
	Addresses []string
	SlaveIDs  []int
}
