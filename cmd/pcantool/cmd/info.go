package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

const flagIdentify = "identify"

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "show hardware and bus state of the channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		identify, err := cmd.Flags().GetDuration(flagIdentify)
		if err != nil {
			return err
		}
		i, err := openInterface()
		if err != nil {
			return err
		}
		defer closeInterface(i)

		in, err := i.Info()
		if err != nil {
			return err
		}
		fmt.Println(in)
		state, err := i.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Bus:      %s\n", state)

		if identify <= 0 {
			return nil
		}
		if err := i.Identify(true); err != nil {
			return err
		}
		defer func() {
			if err := i.Identify(false); err != nil {
				log.Println(err)
			}
		}()
		select {
		case <-time.After(identify):
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().Duration(flagIdentify, 0, "blink the channel LED for this long")
	rootCmd.AddCommand(infoCmd)
}
