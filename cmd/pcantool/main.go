package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/roffe/pcan/cmd/pcantool/cmd"
)

// shutdownGrace bounds how long a stuck driver call may delay exit after
// ctrl-c.
const shutdownGrace = 45 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cancelOnInterrupt(cancel)
	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// cancelOnInterrupt cancels the command on the first interrupt and exits
// hard if it has not returned within shutdownGrace.
func cancelOnInterrupt(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	log.Printf("got %v, closing channel", <-sig)
	cancel()
	select {
	case <-time.After(shutdownGrace):
		log.Fatal("shutdown took too long, forcefully exiting")
	case s := <-sig:
		log.Fatalf("got %v again, forcefully exiting", s)
	}
}
