package sweep

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/ironsphere/internal/config"
	"github.com/banshee-data/ironsphere/internal/ledger"
	"github.com/banshee-data/ironsphere/internal/monitoring"
	"github.com/banshee-data/ironsphere/internal/version"
)

// Session is one binary invocation's row in the ledger. A Session opened
// with an empty ledger path records nothing.
type Session struct {
	ledger  *ledger.Ledger
	SweepID string
}

// OpenSession opens the ledger at path and starts a sweep of the given kind
// ("run" or "extract") carrying the effective configuration.
func OpenSession(path, kind string, cfg *config.SweepConfig) (*Session, error) {
	if path == "" {
		return &Session{}, nil
	}
	l, err := ledger.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		l.Close()
		return nil, err
	}
	id, err := l.StartSweep(kind, version.Version, raw)
	if err != nil {
		l.Close()
		return nil, err
	}
	return &Session{ledger: l, SweepID: id}, nil
}

// Recorder returns the ledger as a Recorder, or nil when disabled.
func (s *Session) Recorder() Recorder {
	if s.ledger == nil {
		return nil
	}
	return s.ledger
}

// Finish stamps the sweep outcome and closes the ledger. Ledger failures are
// logged, never returned, so they cannot mask runErr.
func (s *Session) Finish(runErr error) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.FinishSweep(s.SweepID, runErr); err != nil {
		monitoring.Logf("WARNING: ledger: %v", err)
	}
	if err := s.ledger.Close(); err != nil {
		monitoring.Logf("WARNING: ledger: %v", err)
	}
}
