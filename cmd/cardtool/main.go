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

// cardtool is the maintenance CLI for the card reader: it finds the
// reader, reports the chip revision, and reads, writes and watches
// parking cards without the daemon in the way.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/config"
	"github.com/GatectlProject/gatectl/internal/logging"
	"github.com/GatectlProject/gatectl/rc522"
	"github.com/GatectlProject/gatectl/rc522/transport/i2c"
	"github.com/GatectlProject/gatectl/rc522/transport/spi"
)

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	transportFlag := flag.String("transport", "auto", "Reader bus: auto, spi or i2c")
	deviceFlag := flag.String("device", "", "Bus to open (e.g. SPI0.0 or 1). Empty probes the usual buses.")
	modeFlag := flag.String("mode", "detect", "One of detect, version, read, write, watch")
	idFlag := flag.String("id", "", "Card UID the write must match, as uppercase hex")
	plateFlag := flag.String("plate", "", "License plate to write")
	balanceFlag := flag.String("balance", "", "Balance to write")
	keyFlag := flag.String("key", "FFFFFFFFFFFF", "Sector key as 12 hex digits")
	timeoutFlag := flag.Duration("timeout", 30*time.Second, "Per-operation timeout")
	pollFlag := flag.Duration("poll-interval", 250*time.Millisecond, "Watch mode polling interval")
	debugFlag := flag.Bool("debug", false, "Enable reader bus tracing")
	flag.Parse()

	if *debugFlag {
		rc522.SetDebugEnabled(true)
	}
	out := NewOutput()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *modeFlag == "detect" {
		return runDetect(ctx, *transportFlag, *deviceFlag, out)
	}

	device, err := openDevice(ctx, *transportFlag, *deviceFlag, out)
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	defer func() { _ = device.Close() }()

	switch *modeFlag {
	case "version":
		version, err := device.Version()
		if err != nil {
			out.Error("read version: %v", err)
			return 1
		}
		out.Version(version)
		return 0
	case "read":
		return runRead(ctx, device, *keyFlag, *timeoutFlag, *debugFlag, out)
	case "write":
		return runWrite(ctx, device, writeArgs{
			key:     *keyFlag,
			id:      strings.ToUpper(*idFlag),
			plate:   *plateFlag,
			balance: *balanceFlag,
			timeout: *timeoutFlag,
			debug:   *debugFlag,
		}, out)
	case "watch":
		return runWatch(ctx, device, *pollFlag, out)
	default:
		out.Error("unknown mode %q", *modeFlag)
		return 2
	}
}

// probe names one bus worth trying.
type probe struct {
	kind   string
	device string
}

func candidates(kind, device string) []probe {
	switch kind {
	case "spi", "i2c":
		return []probe{{kind, device}}
	}
	if device != "" {
		// Infer the bus from the device name.
		if strings.Contains(strings.ToLower(device), "i2c") {
			return []probe{{"i2c", device}}
		}
		return []probe{{"spi", device}}
	}
	return []probe{
		{"spi", "SPI0.0"},
		{"spi", "SPI0.1"},
		{"i2c", ""},
	}
}

func openTransport(p probe) (rc522.Transport, error) {
	if p.kind == "i2c" {
		return i2c.New(p.device)
	}
	return spi.New(p.device)
}

// tryOpen opens and initializes a reader on one bus. Init already
// rejects buses where no MFRC522 answers the version register.
func tryOpen(ctx context.Context, p probe) (*rc522.Device, rc522.Version, error) {
	transport, err := openTransport(p)
	if err != nil {
		return nil, 0, err
	}
	device, err := rc522.New(transport)
	if err != nil {
		_ = transport.Close()
		return nil, 0, err
	}
	if err := device.Init(ctx); err != nil {
		_ = device.Close()
		return nil, 0, err
	}
	version, err := device.Version()
	if err != nil {
		_ = device.Close()
		return nil, 0, err
	}
	return device, version, nil
}

func openDevice(ctx context.Context, kind, devicePath string, out *Output) (*rc522.Device, error) {
	for _, p := range candidates(kind, devicePath) {
		out.Probing(p.kind, p.device)
		device, version, err := tryOpen(ctx, p)
		if err != nil {
			out.ProbeMiss()
			continue
		}
		out.ProbeHit(version)
		return device, nil
	}
	return nil, errors.New("no reader found")
}

func runDetect(ctx context.Context, kind, devicePath string, out *Output) int {
	found := 0
	for _, p := range candidates(kind, devicePath) {
		out.Probing(p.kind, p.device)
		device, version, err := tryOpen(ctx, p)
		if err != nil {
			out.ProbeMiss()
			continue
		}
		out.ProbeHit(version)
		found++
		_ = device.Close()
	}
	if found == 0 {
		out.Error("no reader found")
		return 1
	}
	return 0
}

func newService(device *rc522.Device, keyHex string, debug bool) (*card.Service, error) {
	key, err := config.ParseKey(keyHex)
	if err != nil {
		return nil, err
	}
	policy := card.DefaultPolicy()
	policy.Key = key

	level := "warning"
	if debug {
		level = "debug"
	}
	return card.NewService(device, &policy, card.WithLogger(logging.New(level)))
}

func runRead(ctx context.Context, device *rc522.Device, keyHex string, timeout time.Duration, debug bool, out *Output) int {
	svc, err := newService(device, keyHex, debug)
	if err != nil {
		out.Error("%v", err)
		return 2
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec, id, err := svc.ReadRecord(opCtx)
	if err != nil {
		out.Error("read card: %v", err)
		return 1
	}
	out.Record(id, rec)
	return 0
}

type writeArgs struct {
	key     string
	id      string
	plate   string
	balance string
	timeout time.Duration
	debug   bool
}

func runWrite(ctx context.Context, device *rc522.Device, args writeArgs, out *Output) int {
	if len(args.id) < card.MinIDLength || args.plate == "" || args.balance == "" {
		out.Error("write needs -id (at least %d hex chars), -plate and -balance", card.MinIDLength)
		return 2
	}
	svc, err := newService(device, args.key, args.debug)
	if err != nil {
		out.Error("%v", err)
		return 2
	}

	opCtx, cancel := context.WithTimeout(ctx, args.timeout)
	defer cancel()

	status, err := svc.WriteRecord(opCtx, args.id, card.Record{Plate: args.plate, Balance: args.balance})
	if err != nil {
		out.Error("write card: %v", err)
		return 1
	}
	out.WriteResult(status)
	if status != card.StatusSuccess {
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, device *rc522.Device, interval time.Duration, out *Output) int {
	out.Watching()
	last := ""
	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		c, err := device.DetectCard(ctx)
		switch {
		case err == nil:
			if id := card.CanonicalID(c.UID); id != last {
				out.CardSeen(c)
				last = id
			}
		case errors.Is(err, rc522.ErrNoCard):
			if last != "" {
				out.CardRemoved()
				last = ""
			}
		case ctx.Err() != nil:
			return 0
		default:
			out.Error("detect: %v", err)
			return 1
		}

		time.Sleep(interval)
	}
}
