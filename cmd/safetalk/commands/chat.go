package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"safetalk/internal/app"
	"safetalk/internal/crypto"
	"safetalk/internal/domain"
)

// DefaultNickname is used when the nickname prompt is left blank.
const DefaultNickname = "User"

// chat [nickname]: connect to the relay, wait for a peer, then chat until
// either side leaves.
func chatCmd() *cobra.Command {
	var (
		relays    []string
		integrity string
	)
	cmd := &cobra.Command{
		Use:   "chat [nickname]",
		Short: "Join the room and chat with the other peer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(relays) > 0 {
				cfg.Client.Relays = relays
			}
			if integrity != "" {
				cfg.Protocol.Integrity = integrity
			}
			w, err := app.NewWire(cfg, logger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			name := cfg.Client.Nickname
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				name = promptNickname(in, out)
			}
			nick := domain.NewNickname(name)

			fmt.Fprintf(out, "Connecting as %s, waiting for a peer...\n", nick)
			sess, err := w.Sessions.Connect(cmd.Context(), nick)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Connected. Your fingerprint: %s  Peer fingerprint: %s\n",
				crypto.Fingerprint(sess.LocalPublic), crypto.Fingerprint(sess.PeerPublic))
			fmt.Fprintln(out, "Type a message and press Enter. /exit leaves.")

			reason, err := w.Chat.Run(cmd.Context(), sess, in, &consoleSink{out: out, errOut: cmd.ErrOrStderr()})
			if err != nil {
				return fmt.Errorf("session ended: %w", err)
			}
			fmt.Fprintln(out, endMessage(reason))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&relays, "relay", nil, "relay address host:port (repeatable, tried in order)")
	cmd.Flags().StringVar(&integrity, "integrity", "", "frame integrity mode: hmac-sha256 or sha256")
	return cmd
}

func promptNickname(in *bufio.Reader, out io.Writer) string {
	fmt.Fprintf(out, "Nickname [%s]: ", DefaultNickname)
	line, _ := in.ReadString('\n')
	if name := strings.TrimSpace(line); name != "" {
		return name
	}
	return DefaultNickname
}

func endMessage(r domain.EndReason) string {
	switch r {
	case domain.EndLocalExit:
		return "You left the chat."
	case domain.EndPeerLeft:
		return "Your peer left the chat."
	case domain.EndPeerClosed:
		return "Connection closed."
	case domain.EndCanceled:
		return "Interrupted."
	default:
		return "Session ended: " + r.String()
	}
}

// consoleSink prints chat traffic to the terminal.
type consoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func (s *consoleSink) Incoming(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, text)
}

// Outgoing is silent: the terminal already echoed the line.
func (s *consoleSink) Outgoing(string) {}

func (s *consoleSink) Notice(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.errOut, "! "+text)
}
