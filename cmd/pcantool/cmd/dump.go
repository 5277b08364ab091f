package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/roffe/pcan"
	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/frame"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	flagID       = "id"
	flagMask     = "mask"
	flagExtended = "extended"
	flagStatus   = "status"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "print frames received on the channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		idStr, _ := f.GetString(flagID)
		mask, _ := f.GetUint32(flagMask)
		extended, _ := f.GetBool(flagExtended)
		status, _ := f.GetBool(flagStatus)

		filter := can.AcceptAll()
		if idStr != "" {
			id, err := parseID(idStr, extended)
			if err != nil {
				return err
			}
			filter = can.NewFilter(id)
			if f.Changed(flagMask) {
				filter = filter.WithMask(mask)
			}
		}

		i, err := openInterface(pcan.OptStatusFrames(status))
		if err != nil {
			return err
		}
		defer closeInterface(i)
		if err := i.AddFilter(filter); err != nil {
			return err
		}
		return dump(cmd.Context(), i)
	},
}

// dump decouples reading from printing so a slow terminal does not
// overflow the driver's receive queue.
func dump(gctx context.Context, r can.BlockingReceiver) error {
	frames := make(chan can.Frame, 1024)
	errg, ctx := errgroup.WithContext(gctx)
	errg.Go(func() error {
		defer close(frames)
		for {
			f, err := r.ReceiveContext(ctx)
			if err != nil {
				return err
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	errg.Go(func() error {
		for f := range frames {
			fmt.Println(frame.Format(f))
		}
		return nil
	})
	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	f := dumpCmd.Flags()
	f.String(flagID, "", "only frames matching this hex id")
	f.Uint32(flagMask, 0, "id bits that must match, default all")
	f.BoolP(flagExtended, "e", false, "treat --id as extended")
	f.Bool(flagStatus, false, "include bus status frames")
	rootCmd.AddCommand(dumpCmd)
}
