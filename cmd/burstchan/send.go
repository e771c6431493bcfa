package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/covert-channels/burst/controller/channel/burst"
	"github.com/covert-channels/burst/controller/msglog"
)

func sendCmd(gf *globalFlags) *cobra.Command {
	var (
		af      addressFlags
		message string
		random  bool
		minLen  int
		maxLen  int
		logPath string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message",
		Long: `Send one message to the receiver named by ip and port.

The message is given with --message, or generated with --random as printable
ASCII that never contains the stopping character.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if random == cmd.Flags().Changed("message") {
				return errors.New("Give exactly one of --message and --random")
			}
			conf, err := loadConfig(cmd, gf, &af, burst.RoleSend)
			if err != nil {
				return err
			}

			msg := []byte(message)
			if random {
				r := rand.New(rand.NewSource(time.Now().UnixNano()))
				msg = msglog.Random(r, minLen, maxLen, conf.StoppingCharacter)
			}
			if logPath != "" {
				if err := msglog.Append(logPath, msg); err != nil {
					return err
				}
			}

			log.Infof("Sending %d bytes to %d.%d.%d.%d:%d", len(msg),
				conf.FriendIP[0], conf.FriendIP[1], conf.FriendIP[2], conf.FriendIP[3], conf.FriendPort)
			start := time.Now()
			if err := burst.Send(conf, msg); err != nil {
				return err
			}
			fmt.Printf("Sent %q in %s\n", msg, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	af.register(cmd, "Receiver")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message to send")
	cmd.Flags().BoolVar(&random, "random", false, "Send a random message")
	cmd.Flags().IntVar(&minLen, "min-len", 4, "Shortest random message")
	cmd.Flags().IntVar(&maxLen, "max-len", 16, "Longest random message")
	cmd.Flags().StringVar(&logPath, "log", "", "File recording every sent message")

	return cmd
}
