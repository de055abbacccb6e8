// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/internal/plugin"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// managerSet implements spec.md §4.4: the registered subtype managers,
// keyed by concrete kind for idempotent registration, in insertion order
// for deterministic scan start order, plus the auto-load-once flag.
type managerSet struct {
	mu         sync.RWMutex
	byKind     map[string]models.SubtypeManager
	order      []models.SubtypeManager
	loaded     bool
	searchDirs []string

	logger             common.LoggingClient
	onDeviceAdded      func(models.Device)
	onScanningFinished func()
}

func newManagerSet(searchDirs []string, logger common.LoggingClient, onDeviceAdded func(models.Device), onScanningFinished func()) *managerSet {
	return &managerSet{
		byKind:             make(map[string]models.SubtypeManager),
		searchDirs:         searchDirs,
		logger:             logger,
		onDeviceAdded:      onDeviceAdded,
		onScanningFinished: onScanningFinished,
	}
}

// add implements spec.md §4.4's add_manager: duplicate-kind registration
// is a logged no-op; otherwise the manager is added and subscribed.
func (ms *managerSet) add(m models.SubtypeManager) {
	ms.mu.Lock()
	if _, exists := ms.byKind[m.Kind()]; exists {
		ms.mu.Unlock()
		ms.logger.Info(fmt.Sprintf("managerSet: kind %s already registered, ignoring duplicate", m.Kind()))
		return
	}
	ms.byKind[m.Kind()] = m
	ms.order = append(ms.order, m)
	ms.mu.Unlock()

	m.OnDeviceAdded(ms.onDeviceAdded)
	m.OnScanningFinished(ms.onScanningFinished)
	ms.logger.Info(fmt.Sprintf("managerSet: registered subtype manager kind=%s", m.Kind()))
}

// autoLoad implements spec.md §4.4's add_all, re-architected per
// SPEC_FULL.md §11.4 as a plugin.Discover call instead of assembly
// reflection. Safe to call more than once; only the first call does any
// work.
func (ms *managerSet) autoLoad(ctx context.Context) error {
	ms.mu.Lock()
	if ms.loaded {
		ms.mu.Unlock()
		return nil
	}
	dirs := append([]string(nil), ms.searchDirs...)
	ms.mu.Unlock()

	discovered := plugin.Discover(dirs, ms.logger)
	for _, mgr := range discovered {
		ms.add(mgr)
	}

	ms.mu.Lock()
	ms.loaded = true
	ms.mu.Unlock()

	ms.logger.Info(fmt.Sprintf("managerSet: auto-load complete, %d manager(s) discovered", len(discovered)))
	return nil
}

func (ms *managerSet) count() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.order)
}

func (ms *managerSet) autoLoaded() bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.loaded
}

// list returns a snapshot in insertion order, safe to range over without
// holding the managerSet's lock.
func (ms *managerSet) list() []models.SubtypeManager {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]models.SubtypeManager, len(ms.order))
	copy(out, ms.order)
	return out
}
