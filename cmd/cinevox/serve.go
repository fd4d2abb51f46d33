package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cinevox/client/internal/api"
	"cinevox/client/internal/assistant"
	"cinevox/client/internal/auth"
	"cinevox/client/internal/events"
	"cinevox/client/internal/feed"
	"cinevox/client/internal/health"
	"cinevox/client/internal/stt"
	"cinevox/client/internal/types"
)

var errTypedDisabled = errors.New("typed input is disabled in audio mode")

func newServeCmd(app *app) *cobra.Command {
	var audioPath, speakerPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant behind the local panel API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mode := "text"
			if audioPath != "" {
				mode = "audio"
			}
			var typed *stt.Typed
			if mode == "text" {
				typed = stt.NewTyped()
			}
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
			reg := feed.NewRegistry()
			journal.OnAppend(func(e types.Event) { reg.Broadcast(feed.TypeEvent, e) })

			as := assistant.New(assistant.Deps{
				NLU:         app.api,
				Catalog:     app.api,
				Navigator:   journal,
				Notifier:    journal,
				Recognizer:  rec,
				Synthesizer: synth,
			}, app.assistantOptions())
			as.OnUpdate(stateRelay(journal, reg))

			ctrl := &panelController{Assistant: as, typed: typed}
			fs := feed.NewServer(reg, ctrl, journal.List)
			checker := func(ctx context.Context) health.HealthStatus { return health.CheckAll(ctx, app.cfg) }
			h := api.NewHandlers(ctrl, journal, fs, checker)
			pa := api.PanelAuth{Secret: app.cfg.Panel.TokenSecret, Skew: time.Minute}

			mux := http.NewServeMux()
			mux.Handle("/", api.NewRouter(h, pa))

			addr := ":" + app.cfg.Server.Port
			srv := &http.Server{
				Addr:              addr,
				Handler:           logMiddleware(mux),
				ReadHeaderTimeout: 5 * time.Second,
			}

			runDone := make(chan error, 1)
			go func() { runDone <- as.Run(ctx) }()

			go func() {
				<-ctx.Done()
				log.Printf("shutdown signal received; stopping server...")
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(sctx)
			}()

			if pa.Secret != "" {
				exp := time.Now().Add(time.Duration(app.cfg.Panel.TokenTTLMin) * time.Minute)
				if tok, err := auth.GeneratePanelToken(pa.Secret, "panel", exp); err == nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "panel token: %s\n", tok)
				}
			}
			log.Printf("server starting on %s mode=%s", addr, mode)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				stop()
				<-runDone
				return fmt.Errorf("server: %w", err)
			}
			<-runDone
			return nil
		},
	}
	cmd.Flags().StringVar(&audioPath, "audio", "", "capture from this PCM16 source with Deepgram instead of typed input")
	cmd.Flags().StringVar(&speakerPath, "speaker", "", "write synthesized PCM to this file")
	return cmd
}

// stateRelay broadcasts every snapshot and journals state changes.
func stateRelay(journal *events.Journal, reg *feed.Registry) func(types.SessionState) {
	last := ""
	return func(s types.SessionState) {
		reg.Broadcast(feed.TypeSnapshot, s)
		if s.State != last {
			journal.Record(events.TypeState, map[string]any{"from": last, "to": s.State})
			last = s.State
		}
	}
}

// panelController adds typed input to the assistant for panel clients.
type panelController struct {
	*assistant.Assistant
	typed *stt.Typed
}

func (p *panelController) Say(text string) error {
	if p.typed == nil {
		return errTypedDisabled
	}
	if err := p.typed.Push(text); err != nil {
		return err
	}
	p.Start()
	return nil
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
