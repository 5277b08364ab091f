package cmd

import (
	"fmt"

	"github.com/roffe/pcan"
	"github.com/roffe/pcan/pkg/frame"
	"github.com/spf13/cobra"
)

const (
	flagRemote = "rtr"
	flagDLC    = "dlc"
)

var sendCmd = &cobra.Command{
	Use:   "send <id> [data...]",
	Short: "transmit one frame",
	Example: `  pcantool send 7E0 02 10 03
  pcantool send -e 18DB33F1 0201
  pcantool send --rtr --dlc 8 123`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		extended, _ := f.GetBool(flagExtended)
		remote, _ := f.GetBool(flagRemote)
		dlc, _ := f.GetInt(flagDLC)

		id, err := parseID(args[0], extended)
		if err != nil {
			return err
		}
		var out *pcan.Frame
		if remote {
			out, err = pcan.NewRemoteFrame(id, dlc)
		} else {
			var data []byte
			if data, err = parseData(args[1:]...); err != nil {
				return err
			}
			out, err = pcan.NewFrame(id, data)
		}
		if err != nil {
			return err
		}

		i, err := openInterface()
		if err != nil {
			return err
		}
		defer closeInterface(i)
		if err := i.Write(cmd.Context(), out); err != nil {
			return err
		}
		fmt.Println(frame.Format(out))
		return nil
	},
}

func init() {
	f := sendCmd.Flags()
	f.BoolP(flagExtended, "e", false, "send with an extended id")
	f.Bool(flagRemote, false, "send a remote request")
	f.Int(flagDLC, 0, "length of a remote request")
	rootCmd.AddCommand(sendCmd)
}
