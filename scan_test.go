// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

func newTestScan(mgrs ...models.SubtypeManager) (*scanCoordinator, *managerSet, *fanout) {
	f := newFanout(8)
	var scan *scanCoordinator
	ms := newManagerSet(nil, testLogger{}, func(models.Device) {}, func() {
		scan.onManagerFinished()
	})
	scan = newScanCoordinator(ms, f, testLogger{})
	for _, m := range mgrs {
		ms.add(m)
	}
	return scan, ms, f
}

func TestScanStartWithNoBackendsFails(t *testing.T) {
	scan, _, _ := newTestScan()
	err := scan.start(context.Background())
	assert.Equal(t, ErrNoScanBackends, err)
}

func TestScanStartWhileAlreadyScanningFails(t *testing.T) {
	slow := newFakeManager("slow")
	scan, _, _ := newTestScan(slow)

	require.NoError(t, scan.start(context.Background()))
	assert.True(t, scan.isScanning())

	err := scan.start(context.Background())
	assert.Equal(t, ErrAlreadyScanning, err)
}

// TestScanFastReturningManagerDoesNotEmitPrematurely reproduces the
// hazard the Starting-phase suppression exists for: a manager whose
// StartScanning synchronously fires ScanningFinished before start's own
// manager-iteration loop has finished iterating every manager.
func TestScanFastReturningManagerDoesNotEmitPrematurely(t *testing.T) {
	fast := newFakeManager("fast")
	fast.synchronous = true
	slow := newFakeManager("slow")

	scan, _, f := newTestScan(fast, slow)

	require.NoError(t, scan.start(context.Background()))

	select {
	case msg := <-f.Messages():
		t.Fatalf("ScanningFinished emitted before the slow manager finished: %#v", msg)
	case <-time.After(20 * time.Millisecond):
	}

	assert.True(t, scan.isScanning())

	slow.finishAsync()

	select {
	case msg := <-f.Messages():
		_, ok := msg.(ScanningFinishedMsg)
		assert.True(t, ok, "expected ScanningFinishedMsg, got %#v", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ScanningFinishedMsg")
	}
	assert.False(t, scan.isScanning())
}

func TestScanAllSynchronousManagersFinishDuringStart(t *testing.T) {
	m1 := newFakeManager("m1")
	m1.synchronous = true
	m2 := newFakeManager("m2")
	m2.synchronous = true

	scan, _, f := newTestScan(m1, m2)
	require.NoError(t, scan.start(context.Background()))

	select {
	case msg := <-f.Messages():
		_, ok := msg.(ScanningFinishedMsg)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ScanningFinishedMsg")
	}
	assert.False(t, scan.isScanning())
}

func TestScanningFinishedEmittedExactlyOnce(t *testing.T) {
	m := newFakeManager("m")
	scan, _, f := newTestScan(m)
	require.NoError(t, scan.start(context.Background()))

	m.finishAsync()
	m.finishAsync()

	count := 0
drain:
	for {
		select {
		case <-f.Messages():
			count++
		case <-time.After(50 * time.Millisecond):
			break drain
		}
	}
	assert.Equal(t, 1, count, "ScanningFinished must be emitted at most once per scan")
}
