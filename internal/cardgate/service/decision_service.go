package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cardgate/internal/cardgate/reasoning"
	"cardgate/internal/cardgate/store"
	"cardgate/internal/cardgate/types"
	"cardgate/internal/metrics"
)

var ErrInvalidCardUID = errors.New("cardUID is required")

const (
	reasonNotRegistered = "Card not registered."
	reasonSystemError   = "System error during authorization check."

	unknownUser         = "Unknown"
	unknownUserFallback = "Unknown User"
)

// DecisionService turns a scanned identifier into an authorization
// verdict.  Direct lookup decides on its own unless a reasoning engine
// is attached, in which case the engine confirms or denies using the
// full permissions snapshot.  Every invocation lands in the audit log
// exactly once, including the error paths.
type DecisionService struct {
	cards       store.CardStore
	permissions *Permissions
	audit       *AuditLog

	// engine is nil when reasoning augmentation is disabled; then a
	// successful direct lookup alone authorizes.
	engine        reasoning.Engine
	engineTimeout time.Duration

	logger  *log.Logger
	metrics *metrics.Metrics
}

type DecisionConfig struct {
	// Engine enables reasoning augmentation when non-nil.
	Engine reasoning.Engine

	// EngineTimeout bounds each reasoning call.  Defaults to 5s.
	EngineTimeout time.Duration
}

func NewDecisionService(
	cards store.CardStore,
	permissions *Permissions,
	audit *AuditLog,
	cfg DecisionConfig,
	logger *log.Logger,
	m *metrics.Metrics,
) *DecisionService {
	timeout := cfg.EngineTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DecisionService{
		cards:         cards,
		permissions:   permissions,
		audit:         audit,
		engine:        cfg.Engine,
		engineTimeout: timeout,
		logger:        logger,
		metrics:       m,
	}
}

// Decide evaluates one scan.  The returned error is non-nil only for
// malformed input; every system failure past validation is folded into
// a denied verdict so the caller always gets an answer.
func (s *DecisionService) Decide(ctx context.Context, req types.ScanRequest) (types.Decision, error) {
	id := types.NormalizeIdentifier(req.CardUID)
	if id == "" {
		return types.Decision{}, ErrInvalidCardUID
	}

	dec := s.evaluate(ctx, id, req)

	// Audit exactly once, after the verdict is known.  The write is
	// detached from the caller's lifetime so an abandoned request still
	// lands in the log; only a genuine store failure is swallowed, into
	// operator telemetry.
	if err := s.audit.Append(context.WithoutCancel(ctx), types.AccessLogEntry{
		CardUID:  dec.Identifier,
		UserName: dec.ResolvedUserName,
		Status:   statusOf(dec),
		Reason:   dec.Reason,
	}); err != nil {
		s.metrics.AuditWriteFailed.Inc()
		s.logger.Printf("audit write error for %s: %v", dec.Identifier, err)
	}

	if dec.Authorized {
		s.metrics.DecisionsGranted.Inc()
	} else {
		s.metrics.DecisionsDenied.Inc()
	}

	return dec, nil
}

func (s *DecisionService) evaluate(ctx context.Context, id string, req types.ScanRequest) types.Decision {
	card, err := s.cards.FindByUID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Short-circuit: an unregistered card never reaches the
		// reasoning engine.
		return types.Decision{
			Authorized:       false,
			Reason:           reasonNotRegistered,
			ResolvedUserName: unknownUser,
			Identifier:       id,
		}
	}
	if err != nil {
		s.logger.Printf("card lookup error for %s: %v", id, err)
		return types.Decision{
			Authorized:       false,
			Reason:           reasonSystemError,
			ResolvedUserName: unknownUser,
			Identifier:       id,
		}
	}

	name := card.OwnerName
	if name == "" {
		name = unknownUserFallback
	}

	if s.engine == nil {
		return types.Decision{
			Authorized:       true,
			Reason:           fmt.Sprintf("Access granted for %s.", name),
			ResolvedUserName: name,
			Identifier:       id,
		}
	}

	return s.augment(ctx, id, name, req)
}

// augment asks the reasoning engine to confirm or deny.  Any failure
// (snapshot build, transport, timeout, malformed output) fails closed.
func (s *DecisionService) augment(ctx context.Context, id, name string, req types.ScanRequest) types.Decision {
	denied := types.Decision{
		Authorized:       false,
		Reason:           reasonSystemError,
		ResolvedUserName: name,
		Identifier:       id,
	}

	snapshot, err := s.permissions.List(ctx)
	if err != nil {
		s.logger.Printf("permissions snapshot error for %s: %v", id, err)
		return denied
	}

	engineCtx, cancel := context.WithTimeout(ctx, s.engineTimeout)
	defer cancel()

	out, err := s.engine.Decide(engineCtx, reasoning.Input{
		CardUID:          id,
		Block1Data:       req.Block1Data,
		Block2Data:       req.Block2Data,
		PermissionsTable: FormatTable(snapshot),
	})
	if err != nil {
		s.metrics.ReasoningFailed.Inc()
		s.logger.Printf("reasoning error for %s: %v", id, err)
		return denied
	}

	// The engine's structured verdict is trusted as-is.
	return types.Decision{
		Authorized:       out.Authorized,
		Reason:           out.Reason,
		ResolvedUserName: name,
		Identifier:       id,
	}
}

func statusOf(dec types.Decision) string {
	if dec.Authorized {
		return types.StatusGranted
	}
	return types.StatusDenied
}
