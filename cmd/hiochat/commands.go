package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-chat/chat"
	"github.com/momentics/hioload-chat/client"
	"github.com/momentics/hioload-chat/protocol"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>...",
		Short: "Send a message and print the broadcasts that follow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				nonce, err := room.Say(text)
				if err != nil {
					return err
				}
				a.log.Debug().Str("nonce", nonce).Msg("message queued")
				return a.watch(ctx, c, room, cmd.OutOrStdout(), func(u chat.Update) bool {
					for _, m := range u.Messages {
						if m.Message == text {
							return true
						}
					}
					return false
				})
			})
		},
	}
}

func newPollCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Print broadcasts until --wait elapses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				return a.watch(ctx, c, room, cmd.OutOrStdout(), nil)
			})
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var from, to time.Duration
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Fetch stored messages",
		Long:  "Fetch messages stored between now-from and now-to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			start, end := now.Add(-from).UnixNano(), now.Add(-to).UnixNano()
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				room.RequestHistory(start, end)
				return a.watch(ctx, c, room, cmd.OutOrStdout(), func(u chat.Update) bool {
					return len(u.Messages) > 0
				})
			})
		},
	}
	cmd.Flags().DurationVar(&from, "from", 24*time.Hour, "start of the window, as an age")
	cmd.Flags().DurationVar(&to, "to", 0, "end of the window, as an age")
	return cmd
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity the server assigned to this user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				room.RequestIdentity()
				if err := a.watch(ctx, c, room, io.Discard, func(u chat.Update) bool {
					return u.Identity != nil
				}); err != nil {
					return err
				}
				id, ok := room.Identity()
				if !ok {
					return fmt.Errorf("no identity received within %s", a.wait)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id.ID, id.Username)
				return nil
			})
		},
	}
}

func newYodelCmd(a *app) *cobra.Command {
	yodel := &cobra.Command{
		Use:   "yodel",
		Short: "Manage yodels",
	}
	yodel.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a yodel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				room.CreateYodel(args[0])
				return a.watch(ctx, c, room, cmd.OutOrStdout(), func(u chat.Update) bool {
					return len(u.Yodels) > 0 || len(u.Errors) > 0
				})
			})
		},
	})
	yodel.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Describe a yodel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd, func(ctx context.Context, c *client.Client, room *chat.Room) error {
				room.GetYodel(args[0])
				return a.watch(ctx, c, room, cmd.OutOrStdout(), func(u chat.Update) bool {
					return len(u.Yodels) > 0 || len(u.Errors) > 0
				})
			})
		},
	})
	return yodel
}

func printUpdate(w io.Writer, u chat.Update) {
	for _, m := range u.Messages {
		fmt.Fprintln(w, formatMessage(m))
	}
	for _, y := range u.Yodels {
		fmt.Fprintf(w, "yodel %s %q owner=%s\n", y.YodelID, y.Name, y.Owner)
	}
	for _, e := range u.Errors {
		fmt.Fprintf(w, "error: %s\n", e.Message)
	}
}

func formatMessage(m protocol.MsgBroadcast) string {
	ts := time.Unix(0, m.Time).UTC().Format(time.DateTime)
	return fmt.Sprintf("[%s] <%s> %s", ts, m.Author.Username, m.Message)
}
