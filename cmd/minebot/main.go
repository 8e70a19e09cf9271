package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/StoreStation/minebot/pkg/bot"
	"github.com/StoreStation/minebot/pkg/events"
)

func main() {
	var (
		host     string
		port     uint16
		username string
		verbose  int
	)

	root := &cobra.Command{
		Use:   "minebot",
		Short: "Headless Minecraft client that mirrors the world and logs the next chat message",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case verbose >= 2:
				log.SetLevel(log.TraceLevel)
			case verbose == 1:
				log.SetLevel(log.DebugLevel)
			default:
				log.SetLevel(log.InfoLevel)
			}
			return run(host, port, username)
		},
	}
	root.Flags().StringVar(&host, "host", "localhost", "Server host")
	root.Flags().Uint16Var(&port, "port", 25565, "Server port")
	root.Flags().StringVar(&username, "username", "bilbo", "Bot username")
	root.Flags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(host string, port uint16, username string) error {
	client, err := bot.Connect(host, port, username)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Say("Hey! I'm a bot!"); err != nil {
		return err
	}
	pos := client.MyPosition()
	if err := client.Say(fmt.Sprintf("My position is: (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z)); err != nil {
		return err
	}
	log.Infof("Health: %.1f", client.Health())

	event, err := client.ListenFor(events.Matchers{events.ListenChat()})
	if err != nil {
		return err
	}
	if chat, ok := event.(events.ChatMessage); ok {
		log.Infof("<%s> %s", chat.Player, chat.Message)
	}
	return nil
}
