// -*- mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package common

const (
	APIv1Prefix = "/api/v1"

	ConfigDirectory = "./res"
	ConfigFileName  = "configuration.toml"

	DebugDevicesRoute = APIv1Prefix + "/debug/devices"
	DebugScanRoute    = APIv1Prefix + "/debug/scan"
	PingRoute         = APIv1Prefix + "/ping"

	// PluginManifestName is the sidecar file every auto-loadable subtype
	// manager plugin directory must carry alongside its compiled unit.
	PluginManifestName = "manifest.yaml"

	// PluginUnitGlob is the naming convention auto-load enumerates,
	// matched against each search directory.
	PluginUnitGlob = "devicemanager-subtype-*.so"

	// PluginFactorySymbol is the exported symbol every plugin unit must
	// provide: func(logger.LoggingClient) (models.SubtypeManager, error).
	PluginFactorySymbol = "NewSubtypeManager"

	// CorrelationHeader names the context key under which the Dispatcher
	// stashes a per-call correlation ID for logging.
	CorrelationHeader = "X-Correlation-Id"
)
