package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/omgcreativity/laojia/internal/models"
)

// BridgeClient is the worker's view of the bridge endpoints.
type BridgeClient interface {
	FetchPending(ctx context.Context) (models.BridgeFetchResponse, error)
	SubmitAnswer(ctx context.Context, text string) (bool, error)
}

// Asker answers a single question, typically by driving a third-party chat
// page.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// WorkerConfig tunes the automation loop.
type WorkerConfig struct {
	PollInterval time.Duration // default 5s, matching a page-reload cadence
	FaultLimit   int           // consecutive faults before escalation, default 3
}

// Worker is the automation-side polling loop: fetch pending, drive the chat
// page, submit the answer. Faults are tolerated per turn; FaultLimit
// consecutive faults trigger an escalation message into the user's own chat
// channel, where the operator will actually see it, and the loop returns
// so a supervisor can restart the process. Fail fast beats degrading
// silently forever.
type Worker struct {
	bridge BridgeClient
	asker  Asker
	cfg    WorkerConfig
	sleep  sleepFunc
}

// NewWorker creates a relay worker.
func NewWorker(bridge BridgeClient, asker Asker, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.FaultLimit <= 0 {
		cfg.FaultLimit = 3
	}

	return &Worker{
		bridge: bridge,
		asker:  asker,
		cfg:    cfg,
		sleep:  sleepCtx,
	}
}

// Run polls until ctx is cancelled or the fault limit is hit. The returned
// error is nil only on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	faults := 0

	for {
		err := w.step(ctx)
		switch {
		case err == nil:
			faults = 0
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil
		case errors.Is(err, ErrMarkerNotFound):
			// Page still loading or wrong state; a normal negative, not a
			// fault.
			log.Debug().Msg("bridge marker missing, page not ready")
		default:
			faults++
			log.Warn().Err(err).Int("consecutive_faults", faults).Msg("relay turn failed")
			if faults >= w.cfg.FaultLimit {
				w.escalate(ctx, err)
				return fmt.Errorf("giving up after %d consecutive faults: %w", faults, err)
			}
		}

		if err := w.sleep(ctx, w.cfg.PollInterval); err != nil {
			return nil
		}
	}
}

// step performs one poll cycle: at most one fetch, one page interaction and
// one submit.
func (w *Worker) step(ctx context.Context) error {
	pending, err := w.bridge.FetchPending(ctx)
	if err != nil {
		return err
	}
	if !pending.HasNew {
		log.Debug().Msg("no pending message")
		return nil
	}

	log.Info().Str("question", pending.Content).Msg("picked up pending message")

	answer, err := w.asker.Ask(ctx, pending.Content)
	if err != nil {
		return fmt.Errorf("failed to obtain answer: %w", err)
	}

	accepted, err := w.bridge.SubmitAnswer(ctx, answer)
	if err != nil {
		return fmt.Errorf("failed to submit answer: %w", err)
	}
	if !accepted {
		// Someone answered first; the idempotence guard absorbed us.
		log.Info().Msg("answer already delivered, submit was a no-op")
		return nil
	}

	log.Info().Msg("answer delivered")
	return nil
}

// escalate writes a diagnostic into the same conversation channel so the
// operator sees the failure in the chat UI, not just in worker logs.
func (w *Worker) escalate(ctx context.Context, cause error) {
	diag := fmt.Sprintf("⚠️ 自动接力助手连续出错，已停止运行，请检查后台。最近错误: %v", cause)
	if _, err := w.bridge.SubmitAnswer(ctx, diag); err != nil {
		log.Error().Err(err).Msg("failed to deliver escalation message")
	}
}
