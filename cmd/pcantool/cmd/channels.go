package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/roffe/pcan"
	"github.com/roffe/pcan/pkg/pcanbasic"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "list attached channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := loadAPI()
		if err != nil {
			return err
		}
		channels, err := pcan.Channels(api)
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			fmt.Println("no channels attached")
			return nil
		}
		avail := color.New(color.FgGreen).SprintFunc()
		busy := color.New(color.FgYellow).SprintFunc()
		for _, c := range channels {
			if c.Condition == pcanbasic.ChannelAvailable {
				fmt.Println(avail(c))
				continue
			}
			fmt.Println(busy(c))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}
