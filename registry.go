// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// deviceEntry is the Device Entry of spec.md §3: an assigned index, the
// stable identifier, the device handle, a mirrored connected flag, and the
// two subscription cancel funcs the registry must call before the entry is
// dropped.
type deviceEntry struct {
	index      uint32
	identifier models.Identifier
	device     models.Device
	connected  bool

	unsubRemoved  func()
	unsubEmitted  func()
}

// registry owns the index-assignment and identifier-reuse state described
// in spec.md §3/§4.1. Unlike a package-level cache singleton shared by an
// entire process, this is an instance per Device Manager, because spec.md
// assumes one Device Manager per client session.
type registry struct {
	mu         sync.RWMutex
	devices    map[uint32]*deviceEntry
	indexOf    map[models.Identifier]uint32
	nextIndex  uint32
	specVersion uint

	logger common.LoggingClient
	fanout *fanout
}

func newRegistry(specVersion uint, logger common.LoggingClient, fanout *fanout) *registry {
	return &registry{
		devices:     make(map[uint32]*deviceEntry),
		indexOf:     make(map[models.Identifier]uint32),
		specVersion: specVersion,
		logger:      logger,
		fanout:      fanout,
	}
}

// onDeviceAdded implements spec.md §4.1's on_device_added.
func (r *registry) onDeviceAdded(d models.Device) {
	if d == nil {
		r.logger.Debug("onDeviceAdded: ignoring nil device from racing discovery")
		return
	}

	id := d.Identifier()

	r.mu.Lock()

	if existingIdx, known := r.indexOf[id]; known {
		if existing, present := r.devices[existingIdx]; present && existing.connected {
			// duplicate live discovery: do nothing.
			r.mu.Unlock()
			r.logger.Debug(fmt.Sprintf("onDeviceAdded: duplicate live device, identifier=%s index=%d", id, existingIdx))
			return
		}
	}

	idx, known := r.indexOf[id]
	if !known {
		idx = atomic.AddUint32(&r.nextIndex, 1)
	}

	unsubRemoved := d.OnRemoved(func() { r.onDeviceRemoved(d) })
	unsubEmitted := d.OnMessageEmitted(func(reply models.Reply) { r.fanout.publish(reply) })

	r.devices[idx] = &deviceEntry{
		index:        idx,
		identifier:   id,
		device:       d,
		connected:    d.Connected(),
		unsubRemoved: unsubRemoved,
		unsubEmitted: unsubEmitted,
	}
	r.indexOf[id] = idx

	allowed := filterAllowedMessages(d.AllowedMessageTypes(), r.specVersion)
	r.mu.Unlock()

	r.logger.Info(fmt.Sprintf("device added: identifier=%s index=%d name=%s", id, idx, d.Name()))
	r.fanout.publish(DeviceAddedMsg{Index: idx, Name: d.Name(), AllowedMessages: allowed})
}

// onDeviceRemoved implements spec.md §4.1's on_device_removed: find
// entries whose identifier matches, proceed even if zero or more than one
// match (logging either case), drop the entry but retain the
// identifier->index mapping (the "keep-index" variant this spec adopts;
// see DESIGN.md open question #1).
func (r *registry) onDeviceRemoved(d models.Device) {
	id := d.Identifier()

	r.mu.Lock()
	var matches []*deviceEntry
	for _, entry := range r.devices {
		if entry.identifier == id {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 0 {
		r.mu.Unlock()
		r.logger.Debug(fmt.Sprintf("onDeviceRemoved: no entry found for identifier=%s (late event)", id))
		return
	}
	if len(matches) > 1 {
		r.logger.Error(fmt.Sprintf("onDeviceRemoved: registry corruption, %d entries share identifier=%s", len(matches), id))
	}

	for _, entry := range matches {
		delete(r.devices, entry.index)
	}
	r.mu.Unlock()

	for _, entry := range matches {
		if entry.unsubRemoved != nil {
			entry.unsubRemoved()
		}
		if entry.unsubEmitted != nil {
			entry.unsubEmitted()
		}
		r.logger.Info(fmt.Sprintf("device removed: identifier=%s index=%d", id, entry.index))
		r.fanout.publish(DeviceRemovedMsg{Index: entry.index})
	}
}

// removeAll implements spec.md §4.1's remove_all: snapshot, clear, then
// unsubscribe and Disconnect each — no DeviceRemoved outbound is emitted.
func (r *registry) removeAll() {
	r.mu.Lock()
	snapshot := make([]*deviceEntry, 0, len(r.devices))
	for _, entry := range r.devices {
		snapshot = append(snapshot, entry)
	}
	r.devices = make(map[uint32]*deviceEntry)
	r.mu.Unlock()

	for _, entry := range snapshot {
		if entry.unsubRemoved != nil {
			entry.unsubRemoved()
		}
		if entry.unsubEmitted != nil {
			entry.unsubEmitted()
		}
		if err := entry.device.Disconnect(); err != nil {
			r.logger.Error(fmt.Sprintf("removeAll: error disconnecting index=%d: %v", entry.index, err))
		}
	}
}

// onDeviceUpdated is the SPEC_FULL.md §12 supplement: a device whose
// profile changed without a disconnect re-announces itself under its
// existing index instead of being torn down and re-added.
func (r *registry) onDeviceUpdated(d models.Device) {
	id := d.Identifier()

	r.mu.RLock()
	idx, known := r.indexOf[id]
	r.mu.RUnlock()
	if !known {
		r.logger.Debug(fmt.Sprintf("onDeviceUpdated: unknown identifier=%s, treating as add", id))
		r.onDeviceAdded(d)
		return
	}

	r.mu.Lock()
	if entry, present := r.devices[idx]; present {
		entry.connected = d.Connected()
	}
	allowed := filterAllowedMessages(d.AllowedMessageTypes(), r.specVersion)
	r.mu.Unlock()

	r.fanout.publish(DeviceAddedMsg{Index: idx, Name: d.Name(), AllowedMessages: allowed})
}

// get returns the live device for idx, honoring the "present iff added and
// not yet removed" invariant of spec.md §3.
func (r *registry) get(idx uint32) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.devices[idx]
	if !ok {
		return nil, false
	}
	return entry.device, true
}

// snapshotConnected implements spec.md §4.1's snapshot_connected.
func (r *registry) snapshotConnected() []DeviceListEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]DeviceListEntry, 0, len(r.devices))
	for _, entry := range r.devices {
		if !entry.device.Connected() {
			continue
		}
		entries = append(entries, DeviceListEntry{
			Index:           entry.index,
			Name:            entry.device.Name(),
			AllowedMessages: filterAllowedMessages(entry.device.AllowedMessageTypes(), r.specVersion),
		})
	}
	return entries
}

// connectedIndexes returns every index currently marked connected, used by
// StopAllDevices dispatch.
func (r *registry) connectedIndexes() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idxs := make([]uint32, 0, len(r.devices))
	for idx, entry := range r.devices {
		if entry.device.Connected() {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// filterAllowedMessages implements the "filtered message attributes" rule
// of spec.md §4.1: keep only message types introduced at or before
// specVersion.
func filterAllowedMessages(allowed []models.AllowedMessageType, specVersion uint) map[string]models.MessageAttrs {
	out := make(map[string]models.MessageAttrs, len(allowed))
	for _, mt := range allowed {
		if mt.SpecIntroducedIn <= specVersion {
			out[mt.Name] = mt.Attrs
		}
	}
	return out
}
