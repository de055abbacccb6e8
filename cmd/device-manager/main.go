// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Command device-manager bootstraps a standalone Device Manager core:
// it loads configuration, wires in the serial and Modbus subtype
// managers, optionally starts the diagnostics HTTP surface and the
// periodic rescan ticker, and blocks until an interrupt signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	devicemanager "github.com/xmidt-toys/device-manager"
	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/internal/config"
	"github.com/xmidt-toys/device-manager/internal/diag"
	"github.com/xmidt-toys/device-manager/internal/health"
	"github.com/xmidt-toys/device-manager/internal/rescan"
	"github.com/xmidt-toys/device-manager/internal/subtype/modbus"
	"github.com/xmidt-toys/device-manager/internal/subtype/serial"
)

func main() {
	profile := flag.String("profile", "", "configuration profile")
	confDir := flag.String("confdir", "", "configuration directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*profile, *confDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "device-manager: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggingClient(common.ServiceName, cfg.Logging.EnableRemote, cfg.Logging.File, cfg.Logging.LogLevel)
	logger.Info(fmt.Sprintf("device-manager %s starting", common.ServiceVersion))

	dm := devicemanager.NewManager(cfg, logger)

	if len(cfg.Serial.Ports) > 0 {
		dm.AddManager(serial.NewManager(cfg.Serial.Ports, cfg.Serial.BaudRate, logger))
	}
	if len(cfg.Modbus.Addresses) > 0 {
		dm.AddManager(modbus.NewManager(cfg.Modbus.Addresses, cfg.Modbus.SlaveIDs, 19200, logger))
	}

	var diagSrv *http.Server
	if cfg.Diagnostics.Enabled {
		router := diag.New(dm, logger).Router()
		diagSrv = &http.Server{Addr: cfg.Diagnostics.ListenAddress, Handler: router}
		go func() {
			if err := diagSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("diagnostics server: " + err.Error())
			}
		}()
		logger.Info("diagnostics surface listening on " + cfg.Diagnostics.ListenAddress)
	}

	var ticker *rescan.Ticker
	if cfg.Rescan.Enabled {
		ticker, err = rescan.Start(cfg.Rescan.Schedule, dm, logger)
		if err != nil {
			logger.Error("rescan: " + err.Error())
		}
	}

	if cfg.Registry.Enabled {
		if err := health.Register(cfg.Registry.Host, cfg.Registry.Port, common.ServiceName, "localhost", 0, logger); err != nil {
			logger.Warn("registry registration failed: " + err.Error())
		}
	}

	go func() {
		for reply := range dm.Messages() {
			logger.Debug(fmt.Sprintf("event: %+v", reply))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("device-manager shutting down")
	if ticker != nil {
		ticker.Stop()
	}
	if diagSrv != nil {
		diagSrv.Shutdown(context.Background())
	}
	dm.Shutdown(context.Background())
}
