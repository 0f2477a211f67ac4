package message

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"safetalk/internal/domain"
	"safetalk/internal/protocol/frame"
)

// ExitCommand is the input line that ends the session voluntarily.
const ExitCommand = "/exit"

// Service runs chat sessions.
type Service struct {
	frameOpts []frame.Option
	log       *logrus.Entry
}

// Option configures a Service.
type Option func(*Service)

// WithIntegrity selects the frame integrity mode. Both peers must agree.
func WithIntegrity(m frame.Integrity) Option {
	return func(s *Service) { s.frameOpts = append(s.frameOpts, frame.WithIntegrity(m)) }
}

// WithMaxCiphertext bounds frame size in both directions.
func WithMaxCiphertext(n int) Option {
	return func(s *Service) { s.frameOpts = append(s.frameOpts, frame.WithMaxCiphertext(n)) }
}

// WithLogger sets the service logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// New constructs a Message Service.
func New(opts ...Option) *Service {
	s := &Service{log: logrus.NewEntry(logrus.StandardLogger())}
	for _, o := range opts {
		o(s)
	}
	return s
}

// run holds the state shared by one session's two directions.
type run struct {
	conn  net.Conn
	codec *frame.Codec
	sink  domain.ChatSink
	nick  string
	log   *logrus.Entry

	once   sync.Once
	done   chan struct{}
	reason domain.EndReason
	err    error
}

// finish records the first end reason and half-closes the connection.
// Later calls are no-ops.
func (r *run) finish(reason domain.EndReason, err error) {
	r.once.Do(func() {
		r.reason, r.err = reason, err
		close(r.done)
		halfClose(r.conn)
	})
}

// halfClose unblocks both directions without releasing the socket: pending
// reads and writes fail on the expired deadline, and a TCP peer sees FIN.
func halfClose(c net.Conn) {
	_ = c.SetDeadline(time.Now())
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}

// Run chats over sess until either side leaves, the stream fails, or ctx
// is canceled. Lines read from input are sent as "<nickname>: <line>";
// "/exit" or the end of input sends the departure marker. The session's
// connection is closed on return.
//
// The goroutine reading input is not joined: a reader such as os.Stdin
// cannot be interrupted, so it exits on its next line or EOF.
func (s *Service) Run(
	ctx context.Context,
	sess domain.Session,
	input io.Reader,
	sink domain.ChatSink,
) (domain.EndReason, error) {
	codec, err := frame.NewCodec(sess.Key, s.frameOpts...)
	if err != nil {
		sess.Conn.Close()
		return domain.EndError, err
	}
	r := &run{
		conn:  sess.Conn,
		codec: codec,
		sink:  sink,
		nick:  sess.Nickname.String(),
		log:   s.log.WithField("nickname", sess.Nickname.String()),
		done:  make(chan struct{}),
	}

	stop := context.AfterFunc(ctx, func() { r.finish(domain.EndCanceled, ctx.Err()) })
	defer stop()

	lines := make(chan string)
	go r.readInput(input, lines)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.sendLoop(lines)
	}()
	go func() {
		defer wg.Done()
		r.recvLoop()
	}()
	wg.Wait()
	sess.Conn.Close()

	entry := r.log.WithFields(logrus.Fields{
		"function": "Run",
		"reason":   r.reason.String(),
	})
	if r.err != nil {
		entry = entry.WithField("error", r.err.Error())
	}
	entry.Info("Session ended")
	return r.reason, r.err
}

// readInput feeds input lines to the send loop. The channel is closed at
// the end of input.
func (r *run) readInput(input io.Reader, lines chan<- string) {
	defer close(lines)
	br := bufio.NewReader(input)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case lines <- strings.TrimRight(line, "\r\n"):
			case <-r.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.log.WithError(err).Warn("Input read failed")
			}
			return
		}
	}
}

func (r *run) sendLoop(lines <-chan string) {
	for {
		var (
			line string
			ok   bool
		)
		select {
		case <-r.done:
			return
		case line, ok = <-lines:
		}

		if !ok || line == ExitCommand {
			if err := r.codec.Send(r.conn, []byte(domain.LeaveMarker)); err != nil {
				r.finish(domain.EndError, err)
				return
			}
			r.finish(domain.EndLocalExit, nil)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		msg := r.nick + ": " + line
		if len(msg) > r.codec.MaxPlaintext() {
			r.sink.Notice(fmt.Sprintf("message too long (%d bytes, limit %d), not sent",
				len(msg), r.codec.MaxPlaintext()))
			continue
		}
		if err := r.codec.Send(r.conn, []byte(msg)); err != nil {
			r.finish(domain.EndError, err)
			return
		}
		r.sink.Outgoing(msg)
	}
}

func (r *run) recvLoop() {
	for {
		pt, err := r.codec.Recv(r.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.finish(domain.EndPeerClosed, nil)
			} else {
				r.finish(domain.EndError, err)
			}
			return
		}
		text := string(pt)
		if text == domain.LeaveMarker {
			r.finish(domain.EndPeerLeft, nil)
			return
		}
		r.sink.Incoming(text)
	}
}

// Compile-time assertion that Service implements domain.ChatService.
var _ domain.ChatService = (*Service)(nil)
