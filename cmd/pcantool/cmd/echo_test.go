package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/roffe/pcan/pkg/can"
)

func TestEcho(t *testing.T) {
	color.NoColor = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := can.NewLoopback()
	dut := bus.Attach()
	peer := bus.Attach()

	done := make(chan error, 1)
	go func() { done <- echo(ctx, dut, dut, 2) }()

	payloads := [][]byte{{0x01}, {0x02, 0x03}}
	for _, p := range payloads {
		f, err := can.NewDataFrame(can.StandardID(0x123), p)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := can.Transmit(ctx, peer, f); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range payloads {
		got, err := peer.ReceiveContext(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID() != can.StandardID(0x123) || !bytes.Equal(got.Data(), want) {
			t.Errorf("echoed %v % X, want % X", got.ID(), got.Data(), want)
		}
	}
	if err := <-done; err != nil {
		t.Errorf("echo() = %v", err)
	}
}

func TestEchoStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := can.NewLoopback()
	dut := bus.Attach()
	done := make(chan error, 1)
	go func() { done <- echo(ctx, dut, dut, 0) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("echo() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("echo() did not return")
	}
}
