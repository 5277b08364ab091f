package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/roffe/pcan/pkg/bar"
	"github.com/roffe/pcan/pkg/stm32boot"
	"github.com/spf13/cobra"
)

const (
	flagAddress = "address"
	flagYes     = "yes"
)

var fwupdateCmd = &cobra.Command{
	Use:   "fwupdate <image>",
	Short: "flash an STM32 through its CAN bootloader",
	Long: `Erase the flash, write a .bin or .hex image and start it.
The target has to be in its system bootloader.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		yes, _ := f.GetBool(flagYes)

		img, err := stm32boot.LoadImage(args[0])
		if err != nil {
			return err
		}
		addr := cfg.Bootloader.Address
		switch {
		case f.Changed(flagAddress):
			addr, _ = f.GetUint32(flagAddress)
		case img.HasAddress:
			addr = img.Address
		}

		fmt.Printf("%s: %d bytes to 0x%08X on %s\n", args[0], len(img.Data), addr, cfg.Channel)
		if !yes && !yesNo() {
			return nil
		}

		i, err := openInterface()
		if err != nil {
			return err
		}
		defer closeInterface(i)

		b := bar.New(len(img.Data), "flashing")
		client, err := stm32boot.New(i,
			stm32boot.WithTimeout(time.Duration(cfg.Bootloader.TimeoutMs)*time.Millisecond),
			stm32boot.WithSyncAttempts(cfg.Bootloader.SyncAttempts),
			stm32boot.WithProgress(bar.Progress(b)),
			stm32boot.WithLogger(debugLogger()),
		)
		if err != nil {
			return err
		}
		return flash(cmd.Context(), client, addr, img.Data)
	},
}

func flash(ctx context.Context, c *stm32boot.Client, addr uint32, data []byte) error {
	log.Println("syncing with bootloader")
	if err := c.Enable(ctx); err != nil {
		return fmt.Errorf("enable bootloader: %w", err)
	}
	log.Println("erasing flash")
	if err := c.Erase(ctx); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	start := time.Now()
	n, err := c.Write(ctx, addr, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write after %d bytes: %w", n, err)
	}
	log.Printf("wrote %d bytes in %s", n, time.Since(start).Round(time.Millisecond))
	if err := c.Go(ctx, addr); err != nil {
		return fmt.Errorf("go 0x%08X: %w", addr, err)
	}
	log.Println("application started")
	return nil
}

func yesNo() bool {
	prompt := promptui.Select{
		Label:    "[Yes/No]",
		HideHelp: true,
		Items:    []string{"Yes", "No"},
	}
	_, result, err := prompt.Run()
	if err != nil {
		log.Fatalf("Prompt failed %v\n", err)
	}
	return result == "Yes"
}

func init() {
	f := fwupdateCmd.Flags()
	f.Uint32(flagAddress, stm32boot.DefaultAddress, "flash address, default from config or the hex image")
	f.BoolP(flagYes, "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(fwupdateCmd)
}
