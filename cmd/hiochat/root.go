package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-chat/chat"
	"github.com/momentics/hioload-chat/client"
	"github.com/momentics/hioload-chat/control"
)

// app carries state shared by subcommands once the root has run.
type app struct {
	envFiles []string
	addr     string
	user     string
	password string
	logLevel string
	register bool
	wait     time.Duration

	settings *control.Settings
	log      zerolog.Logger
	metrics  *control.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hiochat",
		Short: "Command-line client for the hioload chat service",
		Long: `hiochat connects to a chat server over websocket, sends messages and
prints what the server broadcasts back.

Settings are read from HIOCHAT_* environment variables and optional .env
files; flags override both.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, os.Stderr)
		},
	}

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "read settings from these .env files")
	flags.StringVar(&a.addr, "addr", "", "server address, e.g. ws://localhost:8080")
	flags.StringVarP(&a.user, "user", "u", "", "username")
	flags.StringVarP(&a.password, "password", "p", "", "password")
	flags.StringVar(&a.logLevel, "log-level", "", "trace|debug|info|warn|error")
	flags.BoolVar(&a.register, "register", false, "create the account before connecting")
	flags.DurationVar(&a.wait, "wait", 2*time.Second, "how long to wait for replies")

	root.AddCommand(
		newSendCmd(a),
		newPollCmd(a),
		newHistoryCmd(a),
		newWhoAmICmd(a),
		newYodelCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, logOut io.Writer) error {
	s, err := control.LoadSettings(a.envFiles...)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		s.Addr = a.addr
	}
	if flags.Changed("user") {
		s.Username = a.user
	}
	if flags.Changed("password") {
		s.Password = a.password
	}
	if flags.Changed("log-level") {
		s.LogLevel = a.logLevel
	}
	if flags.Changed("register") {
		s.Register = a.register
	}

	a.settings = s
	a.log = control.NewLogger(logOut, s.LogLevel)
	a.metrics = control.NewMetrics(prometheus.NewRegistry())
	return nil
}

func (a *app) clientConfig() *client.Config {
	cfg := client.DefaultConfig()
	cfg.Addr = a.settings.Addr
	cfg.Username = a.settings.Username
	cfg.Password = a.settings.Password
	cfg.InboxSize = a.settings.InboxSize
	cfg.OutboxSize = a.settings.OutboxSize
	cfg.WriteTimeout = a.settings.WriteTimeout
	cfg.HandshakeTimeout = a.settings.HandshakeTimeout
	cfg.Logger = a.log
	cfg.Metrics = a.metrics
	if a.settings.Register {
		cfg.Path = client.PathRegister
	}
	return cfg
}

// session dials the server, runs fn against a room and closes the client.
func (a *app) session(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client, room *chat.Room) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c, err := client.Dial(ctx, a.clientConfig())
	if err != nil {
		return err
	}
	room := chat.NewRoom(c, chat.WithLogger(a.log))

	runErr := fn(ctx, c, room)
	closeErr := c.Close()
	a.log.Debug().Interface("metrics", a.metrics.GetSnapshot()).Msg("session finished")
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// watch syncs the room until until reports true, the wait elapses, or
// the client stops. Every update is printed to out.
func (a *app) watch(ctx context.Context, c *client.Client, room *chat.Room, out io.Writer, until func(chat.Update) bool) error {
	deadline := time.NewTimer(a.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		u := room.Sync()
		printUpdate(out, u)
		if until != nil && until(u) {
			return nil
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil
		case <-c.Done():
			printUpdate(out, room.Sync())
			return c.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
