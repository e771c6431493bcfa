package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covert-channels/burst/controller/channel/burst"
	"github.com/covert-channels/burst/controller/msglog"
)

func receiveCmd(gf *globalFlags) *cobra.Command {
	var (
		af      addressFlags
		logPath string
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Receive one message",
		Long:  `Bind ip and port, wait for one message and print it.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, gf, &af, burst.RoleReceive)
			if err != nil {
				return err
			}
			msg, err := burst.Receive(conf)
			if err != nil {
				if len(msg) > 0 {
					log.Warningf("Partial message before the error: %q", msg)
				}
				return err
			}
			if logPath != "" {
				if err := msglog.Append(logPath, msg); err != nil {
					return err
				}
			}
			fmt.Printf("%s\n", msg)
			return nil
		},
	}

	af.register(cmd, "Local")
	cmd.Flags().StringVar(&logPath, "log", "", "File recording every received message")

	return cmd
}
