package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/roffe/pcan"
	"github.com/roffe/pcan/cmd/pcantool/pkg/config"
	"github.com/roffe/pcan/pkg/pcanbasic"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "pcantool",
	Short:             "PCAN-Basic swiss army tool",
	Long:              `List, inspect and talk to PEAK-System CAN channels through the PCAN-Basic driver`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

const (
	flagConfig  = "config"
	flagChannel = "channel"
	flagBitrate = "bitrate"
	flagLibrary = "library"
	flagLogFile = "log-file"
	flagDebug   = "debug"
)

var cfg *config.Config

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.StringP(flagChannel, "c", "PCAN_USBBUS1", "channel, e.g. usb1 or PCAN_USBBUS1")
	pf.IntP(flagBitrate, "r", 0, "bit rate in bit/s, 0 = 125 kbit/s at 75% sample point (BTR0BTR1 0x033A)")
	pf.String(flagLibrary, pcanbasic.DefaultLibrary, "PCAN-Basic library path")
	pf.String(flagLogFile, "", "also write the log to this rotated file")
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

// setup loads the configuration and lets flags given on the command line
// override it.
func setup(cmd *cobra.Command, _ []string) error {
	pf := cmd.Flags()
	filename, err := pf.GetString(flagConfig)
	if err != nil {
		return err
	}
	if cfg, err = config.Load(filename); err != nil {
		return err
	}
	if pf.Changed(flagChannel) {
		cfg.Channel, _ = pf.GetString(flagChannel)
	}
	if pf.Changed(flagBitrate) {
		cfg.Bitrate, _ = pf.GetInt(flagBitrate)
	}
	if pf.Changed(flagLibrary) {
		cfg.Library, _ = pf.GetString(flagLibrary)
	}
	if pf.Changed(flagLogFile) {
		cfg.Log.File, _ = pf.GetString(flagLogFile)
	}
	if pf.Changed(flagDebug) {
		cfg.Log.Debug, _ = pf.GetBool(flagDebug)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Log.File != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}))
	}
	return nil
}

func debugLogger() *log.Logger {
	return loggerFor(cfg)
}

func loggerFor(c *config.Config) *log.Logger {
	if c.Log.Debug {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}

func loadAPI() (pcanbasic.API, error) {
	api, err := pcanbasic.Load(cfg.Library)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.Library, err)
	}
	return api, nil
}

func openInterface(opts ...pcan.Opts) (*pcan.Interface, error) {
	api, err := loadAPI()
	if err != nil {
		return nil, err
	}
	return pcan.Open(api, append(interfaceOpts(cfg), opts...)...)
}

// interfaceOpts leaves the bit timing to pcan.Open unless a bit rate was
// configured.
func interfaceOpts(c *config.Config) []pcan.Opts {
	opts := []pcan.Opts{
		pcan.OptChannel(c.Handle()),
		pcan.OptLogger(loggerFor(c)),
	}
	if c.Bitrate != 0 {
		opts = append(opts, pcan.OptBitrate(c.Bitrate))
	}
	return opts
}

func closeInterface(i *pcan.Interface) {
	if cfg.Log.Debug {
		log.Println(i.Stats())
	}
	if err := i.Close(); err != nil {
		log.Println(err)
	}
}
