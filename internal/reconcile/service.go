// Package reconcile keeps group trust state aligned with credential lifecycle
// events. It consumes the oracle's Claimed/Revoked feed and periodically
// sweeps the full binding set, so trust relations converge even when events
// were lost across a transport gap.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"trustbind/internal/oracle"
	"trustbind/internal/platform/config"
	"trustbind/internal/reconcile/metrics"
	"trustbind/pkg/domain"
	dErrors "trustbind/pkg/domain-errors"
	"trustbind/pkg/platform/sentinel"
)

// Trust is the slice of the trust service the reconciler drives.
type Trust interface {
	Register(ctx context.Context, id domain.CredentialID, account domain.Account) error
	Untrust(ctx context.Context, account domain.Account) error
	Reconcile(ctx context.Context, id domain.CredentialID, account domain.Account) error
}

// Bindings is the binding-store slice the reconciler reads.
type Bindings interface {
	AccountOf(ctx context.Context, id domain.CredentialID) (domain.Account, error)
	Walk(ctx context.Context, fn func(account domain.Account, id domain.CredentialID) error) error
}

// Service is the reconciliation loop. Events are sharded onto a fixed worker
// per credential id, so same-id events apply serially in arrival order while
// distinct ids proceed in parallel.
type Service struct {
	feed     oracle.Feed
	trust    Trust
	bindings Bindings
	cfg      config.ReconcileConfig
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func New(feed oracle.Feed, trust Trust, bindings Bindings, cfg config.ReconcileConfig, m *metrics.Metrics, log zerolog.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &Service{
		feed:     feed,
		trust:    trust,
		bindings: bindings,
		cfg:      cfg,
		metrics:  m,
		log:      log.With().Str("component", "reconcile").Logger(),
	}
}

// Run subscribes to the feed and processes events until ctx is cancelled or a
// failure survives the retry budget. It owns the whole lifecycle: connect,
// run, drain on cancellation.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	queues := make([]chan oracle.Event, s.cfg.Workers)
	for i := range queues {
		queue := make(chan oracle.Event, s.cfg.QueueSize)
		queues[i] = queue
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ev := <-queue:
					if err := s.handle(ctx, ev); err != nil {
						return err
					}
				}
			}
		})
	}

	g.Go(func() error { return s.consume(ctx, queues) })
	g.Go(func() error { return s.backfillLoop(ctx) })

	return g.Wait()
}

// consume dispatches feed events to the per-id worker queues, resubscribing
// with backoff whenever the feed channel closes under a live context.
func (s *Service) consume(ctx context.Context, queues []chan oracle.Event) error {
	first := true
	for {
		events, err := s.subscribe(ctx)
		if err != nil {
			return fmt.Errorf("oracle feed subscription failed permanently: %w", err)
		}
		if !first {
			s.metrics.IncResubscribe()
			s.log.Warn().Msg("oracle feed re-established")
		}
		first = false

		for ev := range events {
			shard := shardOf(ev.CredentialID, len(queues))
			select {
			case queues[shard] <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn().Msg("oracle feed closed, resubscribing")
	}
}

func (s *Service) subscribe(ctx context.Context) (<-chan oracle.Event, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.cfg.MaxElapsed

	var events <-chan oracle.Event
	err := backoff.Retry(func() error {
		ch, err := s.feed.Events(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("feed subscribe failed, will retry")
			return err
		}
		events = ch
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return events, nil
}

// handle applies one lifecycle event. Transient failures are retried with
// bounded backoff; exhausting the budget is fatal to the loop. Non-transient
// rejections (an already-expired claim, say) are logged and skipped so one
// poisoned event cannot stall the stream.
func (s *Service) handle(ctx context.Context, ev oracle.Event) error {
	account, err := s.bindings.AccountOf(ctx, ev.CredentialID)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.IncEvent(string(ev.Kind), "unbound")
		s.log.Debug().Stringer("credential", ev.CredentialID).Msg("event for unbound credential, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	var op func(context.Context) error
	switch ev.Kind {
	case oracle.EventClaimed:
		op = func(ctx context.Context) error { return s.trust.Register(ctx, ev.CredentialID, account) }
	case oracle.EventRevoked:
		op = func(ctx context.Context) error { return s.trust.Untrust(ctx, account) }
	default:
		s.metrics.IncEvent(string(ev.Kind), "unknown")
		s.log.Warn().Str("kind", string(ev.Kind)).Msg("unknown event kind, skipping")
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.cfg.MaxElapsed
	err = backoff.Retry(func() error {
		err := op(ctx)
		if err == nil || isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))

	switch {
	case err == nil:
		s.metrics.IncEvent(string(ev.Kind), "applied")
		return nil
	case isTransient(err):
		// Retry budget exhausted on a connectivity failure: surface it so the
		// loop terminates loudly instead of spinning.
		s.metrics.IncEvent(string(ev.Kind), "fatal")
		return fmt.Errorf("event for %s failed after retries: %w", ev.CredentialID, err)
	default:
		s.metrics.IncEvent(string(ev.Kind), "rejected")
		s.log.Warn().Err(err).Stringer("credential", ev.CredentialID).
			Str("kind", string(ev.Kind)).Msg("event rejected, skipping")
		return nil
	}
}

// backfillLoop runs the periodic full reconciliation pass. Live subscription
// alone cannot guarantee delivery across a disconnect gap; the sweep repairs
// whatever the gap lost.
func (s *Service) backfillLoop(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Backfill(ctx); err != nil {
				s.log.Warn().Err(err).Msg("backfill pass failed, will retry next interval")
			}
		}
	}
}

// Backfill sweeps every binding and realigns its trust expiry with the
// oracle's current state. Individual divergence failures are logged and the
// sweep continues.
func (s *Service) Backfill(ctx context.Context) error {
	err := s.bindings.Walk(ctx, func(account domain.Account, id domain.CredentialID) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.trust.Reconcile(ctx, id, account); err != nil {
			s.log.Warn().Err(err).Stringer("account", account).Msg("backfill reconcile failed")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncBackfillPass()
	s.log.Debug().Msg("backfill pass complete")
	return nil
}

// isTransient reports whether the failure is worth retrying: connectivity
// kinds and uncoded infrastructure errors. Coded domain rejections are final.
func isTransient(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return true
	case dErrors.CodeInternal:
		var derr *dErrors.Error
		return !errors.As(err, &derr)
	default:
		return false
	}
}

func shardOf(id domain.CredentialID, workers int) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % uint32(workers))
}
