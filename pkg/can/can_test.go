package can

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIDRange(t *testing.T) {
	if _, ok := NewStandardID(0x800); ok {
		t.Error("NewStandardID(0x800) accepted")
	}
	if _, ok := NewExtendedID(0x20000000); ok {
		t.Error("NewExtendedID(0x20000000) accepted")
	}
	id := ExtendedID(0x1FFFFFFF)
	if !id.IsExtended() || id.Raw() != 0x1FFFFFFF || id.String() != "0x1FFFFFFF" {
		t.Errorf("ExtendedID() = %v", id)
	}
	if s := StandardID(0x7E8).String(); s != "0x7E8" {
		t.Errorf("String() = %q", s)
	}
	defer func() {
		if recover() == nil {
			t.Error("StandardID(0x800) did not panic")
		}
	}()
	StandardID(0x800)
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		id     ID
		want   bool
	}{
		{"accept all", AcceptAll(), ExtendedID(0x1234), true},
		{"exact", NewFilter(StandardID(0x79)), StandardID(0x79), true},
		{"exact miss", NewFilter(StandardID(0x79)), StandardID(0x7A), false},
		{"kind mismatch", NewFilter(StandardID(0x79)), ExtendedID(0x79), false},
		{"masked", NewFilter(StandardID(0x700)).WithMask(0x700), StandardID(0x7E8), true},
		{"masked miss", NewFilter(StandardID(0x700)).WithMask(0x700), StandardID(0x6E8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.id); got != tt.want {
				t.Errorf("%v.Matches(%v) = %v, want %v", tt.filter, tt.id, got, tt.want)
			}
		})
	}
}

func TestCombineFilter(t *testing.T) {
	ids := []ID{StandardID(0x79), StandardID(0x43), StandardID(0x31), StandardID(0x21)}
	f := CombineFilter(ids...)
	for _, id := range ids {
		if !f.Matches(id) {
			t.Errorf("combined filter rejects %v", id)
		}
	}
	if f.ID().Raw() != 0x01 {
		t.Errorf("code = 0x%X, want 0x01", f.ID().Raw())
	}
	if f.Mask() != 0x7FF&^0x7A {
		t.Errorf("mask = 0x%X", f.Mask())
	}
	if f.Matches(StandardID(0x101)) {
		t.Error("combined filter accepts 0x101")
	}
	if !CombineFilter().IsAcceptAll() {
		t.Error("CombineFilter() without ids should accept all")
	}
}

func TestNewFrame(t *testing.T) {
	if _, err := NewDataFrame(StandardID(1), make([]byte, 9)); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("NewDataFrame(9 bytes) error = %v", err)
	}
	f, err := NewRemoteFrame(StandardID(1), 4)
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsRemote() || f.DLC() != 4 || len(f.Data()) != 0 {
		t.Errorf("remote frame = %+v", f)
	}
}

func TestBlock(t *testing.T) {
	n := 0
	err := Block(context.Background(), func() error {
		n++
		if n < 3 {
			return ErrWouldBlock
		}
		return nil
	})
	if err != nil || n != 3 {
		t.Fatalf("Block() = %v after %d calls", err, n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = Block(ctx, func() error { return ErrWouldBlock })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Block() = %v, want deadline exceeded", err)
	}
}

func TestLoopback(t *testing.T) {
	bus := NewLoopback()
	a := bus.Attach()
	b := bus.Attach(WithFilterSlots(1), WithQueueSize(2))

	if err := b.AddFilter(NewFilter(StandardID(0x100))); err != nil {
		t.Fatal(err)
	}
	if err := b.AddFilter(AcceptAll()); !errors.Is(err, ErrFilterLimit) {
		t.Fatalf("second AddFilter() = %v", err)
	}

	send := func(id uint16, data ...byte) {
		t.Helper()
		f, err := NewDataFrame(StandardID(id), data)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := a.Transmit(f); err != nil {
			t.Fatal(err)
		}
	}
	send(0x200, 1)
	send(0x100, 2)
	send(0x100, 3)
	send(0x100, 4)

	if _, err := a.Receive(); !errors.Is(err, ErrWouldBlock) {
		t.Errorf("sender received its own frame: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, want := range []byte{2, 3} {
		f, err := Receive(ctx, b)
		if err != nil {
			t.Fatal(err)
		}
		if f.ID().Raw() != 0x100 || f.Data()[0] != want {
			t.Errorf("received %v %X, want data %X", f.ID(), f.Data(), want)
		}
	}
	if d := b.Dropped(); d != 1 {
		t.Errorf("Dropped() = %d, want 1", d)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		f, _ := NewDataFrame(StandardID(0x100), []byte{5})
		a.Transmit(f)
	}()
	f, err := b.ReceiveContext(ctx)
	if err != nil || f.Data()[0] != 5 {
		t.Fatalf("ReceiveContext() = %v, %v", f, err)
	}

	b.Detach()
	if _, err := b.ReceiveContext(ctx); !errors.Is(err, ErrPortDetached) {
		t.Errorf("ReceiveContext() after Detach = %v", err)
	}
}
