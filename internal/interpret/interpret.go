package interpret

import (
	"context"
	"regexp"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	vchess "github.com/kapu/voice-chess-go/internal/chess"
	"github.com/kapu/voice-chess-go/internal/fault"
)

// Candidate is the model's guess at the spoken move. UCI is the raw
// candidate string; legality is the normalizer's job, never ours.
type Candidate struct {
	UCI     string
	SANHint string
}

// Request carries everything a provider needs to ground its answer.
type Request struct {
	Transcript string
	FEN        string
	LegalMoves []string
}

// Provider is one LLM backend. Implementations return a ReasonNoMove fault
// when the model produced nothing extractable; that outcome is not retried.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, req Request) (Candidate, error)
}

// Interpreter resolves a transcript into a move candidate for a position.
type Interpreter interface {
	Interpret(ctx context.Context, transcript string, pos *nchess.Position) (Candidate, error)
}

const (
	maxAttempts    = 3
	backoffBase    = 1 * time.Second
	backoffCeiling = 8 * time.Second
)

var contentMovePattern = regexp.MustCompile(`([a-h][1-8][a-h][1-8][nbrq]?)`)

// Service wraps a provider with bounded retry and post-processing.
// Interpretation is the only stage in the pipeline that retries; transient
// provider failures back off exponentially, a no-move answer does not.
type Service struct {
	provider Provider
	logger   *zap.Logger
}

func NewService(provider Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, logger: logger}
}

func (s *Service) Interpret(ctx context.Context, transcript string, pos *nchess.Position) (Candidate, error) {
	req := Request{
		Transcript: transcript,
		FEN:        pos.String(),
		LegalMoves: vchess.FormatLegalMoves(pos),
	}

	var cand Candidate
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c, err := s.provider.Invoke(ctx, req)
		if err == nil {
			cand = c
			lastErr = nil
			break
		}
		if fault.ReasonOf(err) == fault.ReasonNoMove {
			s.logger.Warn("no interpretable move in model response",
				zap.String("transcript", transcript),
				zap.String("provider", s.provider.Name()),
			)
			return Candidate{}, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		s.logger.Warn("interpretation attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("provider", s.provider.Name()),
		)
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return Candidate{}, fault.Wrap(fault.KindInterpretation, "", "interpretation canceled", sleepErr)
		}
	}
	if lastErr != nil {
		return Candidate{}, fault.Wrap(fault.KindInterpretation, fault.ReasonUpstream, "move interpretation failed", lastErr)
	}

	return s.postProcess(cand, pos, transcript), nil
}

// postProcess corrects a candidate that is SAN rather than coordinate
// notation ("Re1" instead of "a1e1"). Case variants are tried against the
// live position; if nothing parses the raw candidate flows on unchanged and
// the normalizer classifies it.
func (s *Service) postProcess(cand Candidate, pos *nchess.Position, transcript string) Candidate {
	raw := strings.TrimSpace(cand.UCI)
	if raw == "" || vchess.IsUCIShaped(raw) {
		cand.UCI = strings.ToLower(raw)
		return cand
	}

	variants := []string{raw}
	if strings.ContainsRune("rnbqkRNBQK", rune(raw[0])) {
		rest := raw[1:]
		variants = append(variants, strings.ToUpper(raw[:1])+rest, strings.ToLower(raw[:1])+rest)
	}

	notationSAN := nchess.AlgebraicNotation{}
	notationUCI := nchess.UCINotation{}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		mv, err := notationSAN.Decode(pos, v)
		if err != nil {
			continue
		}
		corrected := strings.ToLower(notationUCI.Encode(pos, mv))
		s.logger.Info("corrected SAN candidate to coordinate notation",
			zap.String("candidate", raw),
			zap.String("corrected", corrected),
			zap.String("transcript", transcript),
		)
		return Candidate{UCI: corrected, SANHint: notationSAN.Encode(pos, mv)}
	}
	return cand
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase << uint(attempt-1)
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func extractFromContent(content string) (Candidate, bool) {
	if m := contentMovePattern.FindString(content); m != "" {
		return Candidate{UCI: m}, true
	}
	return Candidate{}, false
}
