// gatectl
// Copyright (c) 2025 The Gatectl Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gatectl.
//
// gatectl is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gatectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gatectl; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// gatectld is the gate controller daemon. It owns the card reader, the
// gate hardware and the lane sensor, and speaks the line protocol to
// the upstream host over serial.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"periph.io/x/host/v3"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/config"
	"github.com/GatectlProject/gatectl/controller"
	"github.com/GatectlProject/gatectl/gate"
	"github.com/GatectlProject/gatectl/hostlink"
	"github.com/GatectlProject/gatectl/internal/logging"
	"github.com/GatectlProject/gatectl/rc522"
	"github.com/GatectlProject/gatectl/rc522/transport/i2c"
	"github.com/GatectlProject/gatectl/rc522/transport/spi"
	"github.com/GatectlProject/gatectl/sensor"
)

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	configPath := flag.String("config", config.DefaultPath, "Configuration file path")
	debug := flag.Bool("debug", false, "Debug logging plus reader bus tracing")
	flag.Parse()

	cfg, err := config.Load(*configPath, logging.New("info"))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gatectld: %v\n", err)
		return 1
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
		rc522.SetDebugEnabled(true)
	}
	log := logging.New(level)
	log.Info("gatectld starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := host.Init(); err != nil {
		log.Errorf("init gpio host: %v", err)
		return 1
	}

	transport, err := newReaderTransport(cfg.Reader)
	if err != nil {
		log.Errorf("open reader transport: %v", err)
		return 1
	}

	device, err := rc522.New(transport)
	if err != nil {
		log.Errorf("reader: %v", err)
		return 1
	}
	defer func() {
		if err := device.Close(); err != nil {
			log.Warnf("close reader: %v", err)
		}
	}()

	if err := device.Init(ctx); err != nil {
		log.Errorf("init reader: %v", err)
		return 1
	}
	if version, err := device.Version(); err == nil {
		log.Infof("reader: MFRC522 %s on %s", version, cfg.Reader.Transport)
	}

	policy, err := cfg.CardPolicy()
	if err != nil {
		log.Errorf("card policy: %v", err)
		return 1
	}
	cards, err := card.NewService(device, &policy, card.WithLogger(log))
	if err != nil {
		log.Errorf("card service: %v", err)
		return 1
	}

	sup, err := buildGate(cfg, log)
	if err != nil {
		log.Errorf("gate: %v", err)
		return 1
	}

	ranger, err := sensor.NewUltrasonic(cfg.Sensor.TriggerPin, cfg.Sensor.EchoPin, cfg.Sensor.EchoTimeout.Std())
	if err != nil {
		log.Errorf("lane sensor: %v", err)
		return 1
	}

	port, err := hostlink.OpenPort(cfg.Host.Port, cfg.Host.Baud)
	if err != nil {
		log.Errorf("host link: %v", err)
		return 1
	}
	link, err := hostlink.NewLink(port, cfg.Host.PollInterval.Std(), log)
	if err != nil {
		log.Errorf("host link: %v", err)
		return 1
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Warnf("close host link: %v", err)
		}
	}()
	log.Infof("host link on %s at %d baud", cfg.Host.Port, cfg.Host.Baud)

	ctrl, err := controller.New(link, cards, sup, ranger, controller.Config{
		PollInterval:      cfg.Host.PollInterval.Std(),
		PresenceThreshold: cfg.Sensor.Threshold(),
	}, controller.WithLogger(log))
	if err != nil {
		log.Errorf("controller: %v", err)
		return 1
	}

	if err := ctrl.Run(ctx); err != nil {
		log.Errorf("controller: %v", err)
		return 1
	}
	log.Info("gatectld stopped")
	return 0
}

func newReaderTransport(cfg config.ReaderConfig) (rc522.Transport, error) {
	switch cfg.Transport {
	case "i2c":
		if cfg.Address != 0 {
			return i2c.NewWithAddress(cfg.Device, cfg.Address)
		}
		return i2c.New(cfg.Device)
	default:
		return spi.New(cfg.Device)
	}
}

func buildGate(cfg *config.Config, log *logrus.Logger) (*gate.Supervisor, error) {
	servo, err := gate.NewServo(cfg.Gate.ServoPin, cfg.Gate.OpenAngle, cfg.Gate.ClosedAngle)
	if err != nil {
		return nil, err
	}
	lights, err := gate.NewLEDLights(cfg.Gate.GrantedLEDPin, cfg.Gate.DeniedLEDPin)
	if err != nil {
		return nil, err
	}
	buzzer, err := gate.NewBuzzer(cfg.Gate.BuzzerPin)
	if err != nil {
		return nil, err
	}
	return gate.NewSupervisor(servo, lights, buzzer, gate.Config{
		HoldTimeout:   cfg.Gate.HoldTimeout.Std(),
		AlertDuration: cfg.Gate.AlertDuration.Std(),
	}, log)
}
