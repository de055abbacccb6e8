// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package diag provides the optional loopback-only HTTP diagnostics
// surface of SPEC_FULL.md §11.3, adapted from update.go's
// gorilla/mux HandleFunc registration pattern. It is a debug aid that
// reads the device list and can start or stop a scan, never the
// device-control transport itself.
package diag

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	devicemanager "github.com/xmidt-toys/device-manager"
	"github.com/xmidt-toys/device-manager/internal/common"
)

// Server exposes the Device Manager's registry and scan state over
// loopback HTTP for operator inspection.
type Server struct {
	router *mux.Router
	dm     *devicemanager.DeviceManager
	logger common.LoggingClient
}

// New builds the diagnostics router. Call ListenAndServe on the result
// of http.Server{Handler: srv.Router(), Addr: listenAddress} from the
// caller, matching the donor's pattern of leaving transport startup to
// the service bootstrap rather than the handler package itself.
func New(dm *devicemanager.DeviceManager, logger common.LoggingClient) *Server {
	s := &Server{router: mux.NewRouter(), dm: dm, logger: logger}
	s.router.HandleFunc(common.PingRoute, s.handlePing).Methods(http.MethodGet)
	s.router.HandleFunc(common.DebugDevicesRoute, s.handleDevices).Methods(http.MethodGet)
	s.router.HandleFunc(common.DebugScanRoute, s.handleScan).Methods(http.MethodPost)
	return s
}

// Router returns the mux.Router so the caller can wrap it in an
// http.Server bound to a loopback address.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}

// handleDevices reports the currently-connected device snapshot by
// issuing a RequestDeviceListMsg through the ordinary Dispatcher path —
// the diagnostics surface is a client of the Device Manager, not a
// backdoor into its internals.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	reply := s.dm.SendMessage(r.Context(), devicemanager.RequestDeviceListMsg{Id: devicemanager.ReservedSystemID})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.logger.Error("diag: encoding device list failed: " + err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var msg devicemanager.Inbound = devicemanager.StartScanningMsg{Id: devicemanager.ReservedSystemID}
	if r.URL.Query().Get("stop") == "true" {
		msg = devicemanager.StopScanningMsg{Id: devicemanager.ReservedSystemID}
	}

	reply := s.dm.SendMessage(r.Context(), msg)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.logger.Error("diag: encoding scan reply failed: " + err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
