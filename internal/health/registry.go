// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package health implements the optional Consul-compatible service
// registration of SPEC_FULL.md §11.5, wired only into cmd/device-manager
// — the Device Manager core has no notion of a service registry and
// never imports this package.
package health

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-registry/registry"

	"github.com/xmidt-toys/device-manager/internal/common"
)

// Register opens a connection to the configured registry backend and
// registers the running process as a healthy instance of serviceName.
// A failure here is returned to the caller, never fatal by itself — the
// caller decides whether registry integration is load-bearing for its
// deployment.
func Register(host string, port int, serviceName, serviceHost string, servicePort int, logger common.LoggingClient) error {
	client, err := registry.NewRegistryClient(registry.Config{
		Host:           host,
		Port:           port,
		Type:           "consul",
		ServiceKey:     serviceName,
		ServiceHost:    serviceHost,
		ServicePort:    servicePort,
		CheckInterval:  "10s",
		CheckRoute:     common.PingRoute,
		Stem:           fmt.Sprintf("edgex/%s/", serviceName),
	})
	if err != nil {
		return err
	}

	if err := client.Register(); err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("health: registered %s with registry at %s:%d", serviceName, host, port))
	return nil
}
