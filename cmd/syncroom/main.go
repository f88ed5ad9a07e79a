package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/client"
	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/common/config"
	"github.com/syncroom/syncroom/internal/session"
	"github.com/syncroom/syncroom/internal/wire"
	"github.com/syncroom/syncroom/pkg/version"
)

var (
	serverURL string
	sessionID string
	name      string
	debug     bool

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of syncroom",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("syncroom version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "syncroom",
		Short: "Collaboration session client",
		Long:  `syncroom joins a collaboration session and relays chat from stdin`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8741", "hub base URL")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "session id to join (required)")
	rootCmd.PersistentFlags().StringVar(&name, "name", "", "display name")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every inbound frame")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	if sessionID == "" {
		fmt.Fprintln(os.Stderr, "--session is required")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if debug {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
	}

	id := uuid.NewString()
	if name == "" {
		name = id[:8]
	}

	target := fmt.Sprintf("%s/ws/%s?participant=%s&name=%s",
		strings.TrimRight(serverURL, "/"), sessionID,
		url.QueryEscape(id), url.QueryEscape(name))

	sync := session.NewSynchronizer(logger, sessionID, config.DefaultEventLogLimit)

	conn := client.New(target, client.Options{
		Logger: logger,
		OnGiveUp: func() {
			fmt.Fprintln(os.Stderr, "* connection lost for good, giving up")
			os.Exit(1)
		},
		OnStateChange: func(s client.State) {
			if debug {
				fmt.Printf("* connection %s\n", s)
			}
		},
	})
	client.BindSynchronizer(conn, sync)
	registerPrinters(conn)
	conn.Connect()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Printf("joined %s as %s, type to chat, /status <online|away|busy>, /who, ctrl-c to leave\n", sessionID, name)
	for {
		select {
		case <-quit:
			conn.Disconnect()
			return
		case line, ok := <-lines:
			if !ok {
				conn.Disconnect()
				return
			}
			handleLine(conn, sync, id, line)
		}
	}
}

func registerPrinters(conn *client.Conn) {
	conn.On(cnst.MsgNewMessage, func(msg *wire.Message) {
		fmt.Printf("[%s] %s\n", msg.Chat.SenderID, msg.Chat.Text)
	})
	conn.On(cnst.MsgUserJoin, func(msg *wire.Message) {
		fmt.Printf("* %s joined\n", displayName(msg.Join.ParticipantInfo))
	})
	conn.On(cnst.MsgUserLeave, func(msg *wire.Message) {
		fmt.Printf("* %s left\n", msg.Leave.ID)
	})
	conn.On(cnst.MsgStatusUpdate, func(msg *wire.Message) {
		fmt.Printf("* %s is now %s\n", msg.Status.ID, msg.Status.Status)
	})
}

func displayName(p wire.ParticipantInfo) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

func handleLine(conn *client.Conn, sync *session.Synchronizer, id, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	switch {
	case strings.HasPrefix(line, "/status "):
		status := strings.TrimSpace(strings.TrimPrefix(line, "/status "))
		if !session.PresenceStatus(status).Valid() {
			fmt.Fprintf(os.Stderr, "unknown status %q\n", status)
			return
		}
		if !conn.Send(&wire.Message{
			Type:   cnst.MsgStatusUpdate,
			Status: &wire.StatusPayload{ID: id, Status: status},
		}) {
			fmt.Fprintln(os.Stderr, "not connected, status not sent")
		}

	case line == "/who":
		snap := sync.Snapshot()
		for _, p := range snap.Participants {
			fmt.Printf("  %s (%s, %s)\n", displayName(wire.FromParticipant(p)), p.Role, p.Status)
		}

	default:
		if !conn.Send(&wire.Message{
			Type: cnst.MsgNewMessage,
			Chat: &wire.ChatPayload{SenderID: id, Text: line},
		}) {
			fmt.Fprintln(os.Stderr, "not connected, message not sent")
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
