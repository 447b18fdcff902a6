package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"signal-relay/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var (
	watchUser string
	watchHost bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <roomId>",
	Short: "Join a room and print every event it receives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := WebsocketURL(serverURL)
		if err != nil {
			return err
		}
		user := watchUser
		if user == "" {
			user = "relayctl-" + uuid.NewString()[:8]
		}
		fmt.Fprintln(cmd.OutOrStdout(), MutedStyle.Render(fmt.Sprintf("watching %s as %s", args[0], user)))
		return Watch(cmd.Context(), wsURL, args[0], user, watchHost, cmd.OutOrStdout())
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchUser, "user", "u", "", "userId to join as (random when empty)")
	watchCmd.Flags().BoolVar(&watchHost, "host", false, "join as host")
}

// WebsocketURL maps an http(s) base URL onto the relay's /ws endpoint
func WebsocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

// Watch joins roomID as userID and writes one line per received frame to out
// until ctx is cancelled or the server closes the connection.
func Watch(ctx context.Context, wsURL, roomID, userID string, host bool, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = conn.Close()
	})
	defer stop()

	var welcome signaling.Frame
	if err := conn.ReadJSON(&welcome); err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}
	if welcome.Event != signaling.EventWelcome {
		return fmt.Errorf("unexpected first event %q", welcome.Event)
	}
	fmt.Fprintln(out, FormatEvent(welcome))

	join := signaling.Frame{Event: signaling.EventJoinRoom, Data: signaling.Payload{
		"roomId": roomID, "userId": userID, "isHost": host,
	}}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	for {
		var f signaling.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintln(out, FormatEvent(f))
		if f.Event == signaling.EventError {
			return errors.New(f.Data.String("message"))
		}
	}
}
