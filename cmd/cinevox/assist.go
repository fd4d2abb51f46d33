package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cinevox/client/internal/assistant"
	"cinevox/client/internal/checkout"
	"cinevox/client/internal/events"
	"cinevox/client/internal/stt"
	"cinevox/client/internal/types"
)

var errQuit = errors.New("quit")

// settleTimeout bounds how long assist waits for an in-flight turn after
// input ends.
const settleTimeout = 2 * time.Minute

func newAssistCmd(app *app) *cobra.Command {
	var mode, audioPath, speakerPath string
	var hold, noVoice bool
	cmd := &cobra.Command{
		Use:   "assist",
		Short: "Talk to the booking assistant",
		Long: "Talk to the booking assistant. In text mode every line is one utterance. " +
			"In audio mode /start captures one utterance from --audio. " +
			"Commands: /start /stop /clear /voice /quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := &syncWriter{w: cmd.OutOrStdout()}
			typed := stt.NewTyped()
			rec, err := app.recognizer(mode, audioPath, typed)
			if err != nil {
				return err
			}
			synth, closer, err := app.synthesizer(speakerPath)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			journal := events.NewJournal()
			journal.OnAppend(func(e types.Event) {
				if e.Type == events.TypeNotice {
					_, _ = fmt.Fprintf(out, "! %v\n", e.Payload["message"])
				}
			})
			nav := &terminalNavigator{ctx: ctx, journal: journal, app: app, out: out, hold: hold}

			opts := app.assistantOptions()
			if noVoice {
				opts.VoiceEnabled = false
			}
			as := assistant.New(assistant.Deps{
				NLU:         app.api,
				Catalog:     app.api,
				Navigator:   nav,
				Notifier:    journal,
				Recognizer:  rec,
				Synthesizer: synth,
			}, opts)
			printer := &transcriptPrinter{out: out, showListening: mode == "audio"}
			as.OnUpdate(printer.update)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			runDone := make(chan error, 1)
			go func() { runDone <- as.Run(runCtx) }()
			if mode == "text" {
				go restartForPending(runCtx, as, typed)
			}

			err = readCommands(runCtx, cmd.InOrStdin(), out, as, typed, mode)
			if err == nil {
				waitSettled(runCtx, as, typed, nav)
			}
			cancel()
			<-runDone
			if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", "text", "input mode: text or audio")
	f.StringVar(&audioPath, "audio", "", "PCM16 16kHz mono audio source for audio mode, - for stdin")
	f.StringVar(&speakerPath, "speaker", "", "write synthesized PCM to this file")
	f.BoolVar(&hold, "hold", false, "hold seats automatically when the assistant opens seat selection")
	f.BoolVar(&noVoice, "no-voice", false, "start with voice output disabled")
	return cmd
}

// readCommands feeds stdin lines to the assistant until EOF (nil), /quit
// (errQuit) or cancellation.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, as *assistant.Assistant, typed *stt.Typed, mode string) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			switch line {
			case "":
			case "/start":
				as.Start()
			case "/stop":
				as.Stop()
			case "/clear":
				as.Clear()
			case "/voice":
				as.ToggleVoice()
			case "/quit":
				return errQuit
			default:
				if mode != "text" {
					_, _ = fmt.Fprintln(out, "! type /start to capture from the audio source")
					continue
				}
				if err := typed.Push(line); err != nil {
					_, _ = fmt.Fprintf(out, "! %v\n", err)
					continue
				}
				as.Start()
			}
		}
	}
}

// restartForPending starts a capture whenever typed lines wait while the
// assistant is idle, since Start is ignored during a turn.
func restartForPending(ctx context.Context, as *assistant.Assistant, typed *stt.Typed) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if typed.Pending() > 0 && as.Snapshot().State == assistant.StateIdle {
				as.Start()
			}
		}
	}
}

// waitSettled returns once the assistant stayed idle with no queued input
// and no seat hold in flight for several consecutive polls.
func waitSettled(ctx context.Context, as *assistant.Assistant, typed *stt.Typed, nav *terminalNavigator) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	stable := 0
	for stable < 4 {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if typed.Pending() == 0 && as.Snapshot().State == assistant.StateIdle && !nav.busy() {
			stable++
		} else {
			stable = 0
		}
	}
}

type transcriptPrinter struct {
	out           io.Writer
	showListening bool
	printed       int
	lastState     string
}

func (p *transcriptPrinter) update(s types.SessionState) {
	if len(s.Conversation) < p.printed {
		p.printed = 0
	}
	for _, u := range s.Conversation[p.printed:] {
		who := "you"
		if u.Source == types.SourceAgent {
			who = "agent"
		}
		_, _ = fmt.Fprintf(p.out, "%s: %s\n", who, u.Text)
	}
	p.printed = len(s.Conversation)
	if p.showListening && s.State != p.lastState && s.State == assistant.StateListening {
		_, _ = fmt.Fprintln(p.out, "(listening)")
	}
	p.lastState = s.State
}

// terminalNavigator records the seat-selection route, prints it and
// optionally holds the seats in the background.
type terminalNavigator struct {
	ctx     context.Context
	journal *events.Journal
	app     *app
	out     io.Writer
	hold    bool

	mu      sync.Mutex
	pending int
}

func (n *terminalNavigator) SeatSelection(route types.SeatSelectionRoute) {
	n.journal.SeatSelection(route)
	_, _ = fmt.Fprintf(n.out, "-> seat selection: showtime=%d movie=%d seats=%d date=%s time=%s\n",
		route.ShowtimeID, route.MovieID, route.NumSeats, orDash(route.Date), orDash(route.Time))
	if !n.hold {
		_, _ = fmt.Fprintf(n.out, "   hold them with: cinevox seats %d --seats %d\n", route.ShowtimeID, route.NumSeats)
		return
	}
	n.mu.Lock()
	n.pending++
	n.mu.Unlock()
	go func() {
		defer func() {
			n.mu.Lock()
			n.pending--
			n.mu.Unlock()
		}()
		n.holdSeats(route)
	}()
}

func (n *terminalNavigator) busy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending > 0
}

func (n *terminalNavigator) holdSeats(route types.SeatSelectionRoute) {
	plan, err := n.app.flow.Prepare(n.ctx, route.ShowtimeID)
	if err != nil {
		_, _ = fmt.Fprintf(n.out, "! could not load showtime %d: %v\n", route.ShowtimeID, err)
		return
	}
	seats, err := checkout.AutoSelect(plan.Seats, route.NumSeats)
	if err != nil {
		_, _ = fmt.Fprintf(n.out, "! could not pick seats: %v\n", err)
		return
	}
	sel, err := n.app.flow.Hold(n.ctx, plan, seats)
	if err != nil {
		_, _ = fmt.Fprintf(n.out, "! could not hold seats: %v\n", err)
		return
	}
	_, _ = fmt.Fprint(n.out, checkout.SeatGrid(plan.Seats))
	printHeld(n.out, sel)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
