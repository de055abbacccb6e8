// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package devicemanager implements the Device Manager core: a single
// logical client session's view of discovered devices, exposed through
// one message-in/reply-out Dispatcher and one outbound event stream.
package devicemanager

import (
	"context"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/internal/config"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// DeviceManager ties the Registry, Scan Coordinator, Subtype Manager Set
// and Event Fanout of spec.md §4 into the single object a caller
// constructs per session.
type DeviceManager struct {
	registry   *registry
	scan       *scanCoordinator
	managers   *managerSet
	fanout     *fanout
	dispatcher *dispatcher

	logger common.LoggingClient
}

// NewManager wires the four components together. The Subtype Manager
// Set's callbacks are bound to the Registry's and Scan Coordinator's
// methods here rather than inside either component, which is what keeps
// registry.go, scan.go and managerset.go free of circular references on
// each other's concrete types.
func NewManager(cfg *config.Config, logger common.LoggingClient) *DeviceManager {
	f := newFanout(cfg.Service.DeviceMessageQueueSize)
	reg := newRegistry(cfg.Service.SpecVersion, logger, f)

	// With AutoLoad off, auto-load has no directories to search and so
	// discovers nothing.
	searchDirs := cfg.ManagerSet.SearchDirs
	if !cfg.ManagerSet.AutoLoad {
		searchDirs = nil
	}

	var scan *scanCoordinator
	ms := newManagerSet(searchDirs, logger, reg.onDeviceAdded, func() {
		scan.onManagerFinished()
	})
	scan = newScanCoordinator(ms, f, logger)

	return &DeviceManager{
		registry:   reg,
		scan:       scan,
		managers:   ms,
		fanout:     f,
		dispatcher: newDispatcher(reg, scan, logger),
		logger:     logger,
	}
}

// SendMessage is the Device Manager's single entry point, per spec.md
// §4.3. Every inbound message produces exactly one reply carrying its Id.
func (dm *DeviceManager) SendMessage(ctx context.Context, msg Inbound) models.Reply {
	return dm.dispatcher.SendMessage(ctx, msg)
}

// Messages exposes the outbound event stream: DeviceAdded, DeviceRemoved,
// ScanningFinished, and every message a connected Device emits on its own,
// all in publish order.
func (dm *DeviceManager) Messages() <-chan models.Reply {
	return dm.fanout.Messages()
}

// AddManager registers a Subtype Manager directly, bypassing plugin
// auto-load — the path a host process uses for subtype managers it links
// in statically (internal/subtype/serial, internal/subtype/modbus)
// instead of loading as .so units.
func (dm *DeviceManager) AddManager(m models.SubtypeManager) {
	dm.managers.add(m)
}

// Shutdown implements the redesign note in SPEC_FULL.md §13: cleanup is
// an explicit call, never a finalizer. It stops any in-flight scan,
// disconnects and unsubscribes every known device, and closes the
// outbound stream. Calling SendMessage after Shutdown has undefined
// behavior; the caller owns sequencing.
func (dm *DeviceManager) Shutdown(ctx context.Context) {
	if err := dm.scan.stop(ctx); err != nil {
		dm.logger.Error("shutdown: error stopping scan: " + err.Error())
	}
	dm.registry.removeAll()
	dm.fanout.close()
}
