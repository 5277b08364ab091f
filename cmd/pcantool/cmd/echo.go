package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/frame"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	flagCount   = "count"
	flagForever = "forever"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "transmit received frames back onto the bus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt(flagCount)
		forever, _ := cmd.Flags().GetBool(flagForever)
		if forever {
			count = 0
		} else if count < 1 {
			return fmt.Errorf("--%s must be at least 1", flagCount)
		}

		i, err := openInterface()
		if err != nil {
			return err
		}
		defer closeInterface(i)
		rx, tx, err := i.Split()
		if err != nil {
			return err
		}
		if err := rx.AddFilter(can.AcceptAll()); err != nil {
			return err
		}
		err = echo(cmd.Context(), rx, tx, count)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// echo sends every received frame back until count frames are done, zero
// means until ctx ends.
func echo(gctx context.Context, rx can.BlockingReceiver, tx can.Transmitter, count int) error {
	frames := make(chan can.Frame, 64)
	errg, ctx := errgroup.WithContext(gctx)
	errg.Go(func() error {
		defer close(frames)
		for n := 0; count == 0 || n < count; n++ {
			f, err := rx.ReceiveContext(ctx)
			if err != nil {
				return err
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	errg.Go(func() error {
		for f := range frames {
			fmt.Println(frame.Format(f))
			if _, err := can.Transmit(ctx, tx, f); err != nil {
				return err
			}
		}
		return nil
	})
	return errg.Wait()
}

func init() {
	f := echoCmd.Flags()
	f.IntP(flagCount, "n", 1, "number of frames to echo")
	f.Bool(flagForever, false, "echo until interrupted")
	rootCmd.AddCommand(echoCmd)
}
