// Command burstchan sends and receives messages over the burst covert
// channel, or serves the websocket controller.
package main

import (
	"fmt"
	"os"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/covert-channels/burst/controller/channel/burst"
)

const progName = "burstchan"

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = logging.MustGetLogger(progName)

var leveledLogBackend logging.LeveledBackend

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{time:15:04:05.000} %{level:8s} %{module:-10s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

type globalFlags struct {
	configPath string
	debug      bool
}

func main() {
	startLogging()

	var gf globalFlags
	rootCmd := &cobra.Command{
		Use:   progName,
		Short: "Covert channel carrying messages in UDP burst sizes",
		Long: `burstchan hides a message in the number of UDP packets per burst.

The sender opens every message with a handshake announcing the burst size
of each symbol, derived from a shared secret and the current time. Both ends
then move the sizes after every byte, driven by the bytes exchanged so far.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if gf.debug {
				leveledLogBackend.SetLevel(logging.DEBUG, "")
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&gf.configPath, "config", "c", "", "JSON config file with send and receive sections")
	rootCmd.PersistentFlags().BoolVarP(&gf.debug, "debug", "d", false, "Log every burst")

	rootCmd.AddCommand(
		sendCmd(&gf),
		receiveCmd(&gf),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err)
		os.Exit(1)
	}
}

// addressFlags override the address of the config file for one run.
type addressFlags struct {
	ip   string
	port uint16
}

func (af *addressFlags) register(cmd *cobra.Command, what string) {
	cmd.Flags().StringVar(&af.ip, "ip", "", what+" IP address")
	cmd.Flags().Uint16Var(&af.port, "port", 0, what+" UDP port")
}

// loadConfig reads the role's section of the config file, or the defaults
// when no file is given, and applies the address flags.
func loadConfig(cmd *cobra.Command, gf *globalFlags, af *addressFlags, role string) (burst.Config, error) {
	cc := burst.GetDefault()
	if role == burst.RoleSend {
		cc.OriginPort.Value = 0
	}
	if gf.configPath != "" {
		var err error
		if cc, err = burst.LoadFileConfig(gf.configPath, role); err != nil {
			return burst.Config{}, err
		}
	}

	ip, port := &cc.FriendIP, &cc.FriendPort
	if role == burst.RoleReceive {
		ip, port = &cc.OriginIP, &cc.OriginPort
	}
	if cmd.Flags().Changed("ip") {
		ip.Value = af.ip
	}
	if cmd.Flags().Changed("port") {
		port.Value = af.port
	}
	return burst.ToConfig(cc)
}
