// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/xmidt-toys/device-manager/internal/common"
)

// scanPhase is the Scan Coordinator's state machine from spec.md §4.2.
type scanPhase int

const (
	phaseIdle scanPhase = iota
	phaseStarting
	phaseScanning
)

// scanCoordinator aggregates per-subtype-manager scanning activity into a
// single global scan lifecycle, enforcing at-most-one-in-flight and
// exactly-once ScanningFinished delivery.
type scanCoordinator struct {
	mu           sync.Mutex
	phase        scanPhase
	sentFinished bool

	managers *managerSet
	fanout   *fanout
	logger   common.LoggingClient
}

func newScanCoordinator(managers *managerSet, fanout *fanout, logger common.LoggingClient) *scanCoordinator {
	return &scanCoordinator{
		managers: managers,
		fanout:   fanout,
		logger:   logger,
	}
}

// start implements spec.md §4.2's Idle -> Starting -> Scanning transition.
//
// The entire manager-iteration loop runs outside the mutex so a manager
// that synchronously fires ScanningFinished from within its own
// StartScanning does not deadlock against this goroutine; instead the
// Starting phase itself suppresses that callback (see onManagerFinished),
// and a single synthetic aggregation check runs once the loop completes
// and the phase has flipped to Scanning — this is the redesign note's
// "atomic critical section" without reentrant locking.
func (s *scanCoordinator) start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != phaseIdle {
		s.mu.Unlock()
		return ErrAlreadyScanning
	}

	needsAutoLoad := s.managers.count() == 0 && !s.managers.autoLoaded()
	if needsAutoLoad {
		// Claim the Starting phase before releasing the lock for the
		// (potentially blocking) auto-load call, so a second concurrent
		// StartScanning sees phase != phaseIdle and is rejected instead of
		// also passing the guard above.
		s.phase = phaseStarting
		s.mu.Unlock()
		if err := s.managers.autoLoad(ctx); err != nil {
			s.logger.Warn(fmt.Sprintf("scan start: auto-load failed: %v", err))
		}
		s.mu.Lock()
	}

	if s.managers.count() == 0 {
		if needsAutoLoad {
			s.phase = phaseIdle
		}
		s.mu.Unlock()
		return ErrNoScanBackends
	}

	s.phase = phaseStarting
	s.sentFinished = false
	mgrs := s.managers.list()
	s.mu.Unlock()

	var firstErr error
	for _, m := range mgrs {
		if err := m.StartScanning(ctx); err != nil {
			s.logger.Error(fmt.Sprintf("scan start: manager %s failed: %v", m.Kind(), err))
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "subtype manager %s", m.Kind())
			}
		}
	}

	s.mu.Lock()
	s.phase = phaseScanning
	s.mu.Unlock()

	// run the aggregation check exactly once, synthetically, now that
	// every manager has been asked to start and the phase is Scanning.
	s.checkAggregation()

	return firstErr
}

// stop implements spec.md §4.2's Scanning -> StopScanning path. Managers
// signal their own completion asynchronously through ScanningFinished;
// stop itself never emits a synthetic completion.
func (s *scanCoordinator) stop(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != phaseScanning {
		s.mu.Unlock()
		return nil
	}
	mgrs := s.managers.list()
	s.mu.Unlock()

	var firstErr error
	for _, m := range mgrs {
		if err := m.StopScanning(ctx); err != nil {
			s.logger.Error(fmt.Sprintf("scan stop: manager %s failed: %v", m.Kind(), err))
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "subtype manager %s", m.Kind())
			}
		}
	}
	return firstErr
}

// isScanning reports whether the global scan activity is outside Idle.
func (s *scanCoordinator) isScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase != phaseIdle
}

// onManagerFinished is subscribed to every subtype manager's
// OnScanningFinished callback by the managerSet (spec.md §4.4). While the
// Coordinator is in Starting, this is a deliberate no-op: the aggregation
// check it would otherwise trigger is suppressed until start's own
// synthetic check runs, per spec.md §4.2's rationale.
func (s *scanCoordinator) onManagerFinished() {
	s.checkAggregation()
}

// checkAggregation implements spec.md §4.2's "evaluate all_done, emit at
// most one ScanningFinished" rule. It is a no-op outside Scanning — which
// is what makes the Starting-phase suppression work without reentrant
// locking.
func (s *scanCoordinator) checkAggregation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != phaseScanning {
		return
	}

	allDone := true
	for _, m := range s.managers.list() {
		if m.IsScanning() {
			allDone = false
			break
		}
	}

	if allDone && !s.sentFinished {
		s.sentFinished = true
		s.phase = phaseIdle
		s.fanout.publish(ScanningFinishedMsg{})
	}
}
