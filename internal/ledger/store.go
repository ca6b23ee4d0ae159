package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Sweep statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Sweep is one invocation of a sweep binary.
type Sweep struct {
	SweepID    string          `json:"sweep_id"`
	Kind       string          `json:"kind"` // "run" or "extract"
	Version    string          `json:"version"`
	ConfigJSON json.RawMessage `json:"config_json,omitempty"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	StartedAt  int64           `json:"started_at"`
	FinishedAt int64           `json:"finished_at,omitempty"`
}

// CaseRun is one solver invocation.
type CaseRun struct {
	RunID        string `json:"run_id"`
	SweepID      string `json:"sweep_id"`
	CaseKey      string `json:"case_key"`
	Composition  string `json:"composition"`
	SourceEnergy string `json:"source_energy"`
	Library      string `json:"library"`
	WorkDir      string `json:"work_dir"`
	Statepoint   string `json:"statepoint,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	StartedAt    int64  `json:"started_at"`
	FinishedAt   int64  `json:"finished_at"`
}

// Extraction is one pair of CSV tables written for a case.
type Extraction struct {
	ExtractionID string `json:"extraction_id"`
	SweepID      string `json:"sweep_id"`
	CaseKey      string `json:"case_key"`
	Statepoint   string `json:"statepoint"`
	NeutronCSV   string `json:"neutron_csv"`
	PhotonCSV    string `json:"photon_csv"`
	NeutronRows  int    `json:"neutron_rows"`
	PhotonRows   int    `json:"photon_rows"`
	CreatedAt    int64  `json:"created_at"`
}

// StartSweep inserts a running sweep and returns its id.
func (l *Ledger) StartSweep(kind, version string, config json.RawMessage) (string, error) {
	s := Sweep{
		SweepID:    uuid.New().String(),
		Kind:       kind,
		Version:    version,
		ConfigJSON: config,
		Status:     StatusRunning,
		StartedAt:  l.clock.Now().UnixNano(),
	}
	var cfg interface{}
	if len(s.ConfigJSON) > 0 {
		cfg = string(s.ConfigJSON)
	}
	_, err := l.db.Exec(`
		INSERT INTO sweeps (sweep_id, kind, version, config_json, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.SweepID, s.Kind, s.Version, cfg, s.Status, s.StartedAt)
	if err != nil {
		return "", fmt.Errorf("insert sweep: %w", err)
	}
	return s.SweepID, nil
}

// FinishSweep marks a sweep done. A non-nil runErr marks it failed.
func (l *Ledger) FinishSweep(sweepID string, runErr error) error {
	status, msg := StatusOK, sql.NullString{}
	if runErr != nil {
		status = StatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := l.db.Exec(`
		UPDATE sweeps SET status = ?, error = ?, finished_at = ?
		WHERE sweep_id = ?`,
		status, msg, l.clock.Now().UnixNano(), sweepID)
	if err != nil {
		return fmt.Errorf("update sweep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sweep %s not found", sweepID)
	}
	return nil
}

// GetSweep returns a sweep by id.
func (l *Ledger) GetSweep(sweepID string) (*Sweep, error) {
	var (
		s        Sweep
		cfg, msg sql.NullString
		finished sql.NullInt64
	)
	err := l.db.QueryRow(`
		SELECT sweep_id, kind, version, config_json, status, error, started_at, finished_at
		FROM sweeps WHERE sweep_id = ?`, sweepID).
		Scan(&s.SweepID, &s.Kind, &s.Version, &cfg, &s.Status, &msg, &s.StartedAt, &finished)
	if err != nil {
		return nil, fmt.Errorf("get sweep %s: %w", sweepID, err)
	}
	if cfg.Valid {
		s.ConfigJSON = json.RawMessage(cfg.String)
	}
	s.Error = msg.String
	s.FinishedAt = finished.Int64
	return &s, nil
}

// RecordCaseRun stores one solver invocation. RunID is generated if empty.
func (l *Ledger) RecordCaseRun(r *CaseRun) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	_, err := l.db.Exec(`
		INSERT INTO case_runs (
			run_id, sweep_id, case_key, composition, source_energy, library,
			work_dir, statepoint, status, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SweepID, r.CaseKey, r.Composition, r.SourceEnergy, r.Library,
		r.WorkDir, nullString(r.Statepoint), r.Status, nullString(r.Error), r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case run %s: %w", r.CaseKey, err)
	}
	return nil
}

// CaseRuns lists the runs of a sweep in execution order.
func (l *Ledger) CaseRuns(sweepID string) ([]*CaseRun, error) {
	rows, err := l.db.Query(`
		SELECT run_id, sweep_id, case_key, composition, source_energy, library,
		       work_dir, statepoint, status, error, started_at, finished_at
		FROM case_runs
		WHERE sweep_id = ?
		ORDER BY started_at, rowid`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query case runs: %w", err)
	}
	defer rows.Close()

	var runs []*CaseRun
	for rows.Next() {
		var (
			r       CaseRun
			sp, msg sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.SweepID, &r.CaseKey, &r.Composition, &r.SourceEnergy, &r.Library,
			&r.WorkDir, &sp, &r.Status, &msg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Statepoint = sp.String
		r.Error = msg.String
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// RecordExtraction stores one extraction. ExtractionID is generated if empty.
func (l *Ledger) RecordExtraction(e *Extraction) error {
	if e.ExtractionID == "" {
		e.ExtractionID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = l.clock.Now().UnixNano()
	}
	_, err := l.db.Exec(`
		INSERT INTO extractions (
			extraction_id, sweep_id, case_key, statepoint, neutron_csv, photon_csv,
			neutron_rows, photon_rows, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ExtractionID, e.SweepID, e.CaseKey, e.Statepoint, e.NeutronCSV, e.PhotonCSV,
		e.NeutronRows, e.PhotonRows, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction %s: %w", e.CaseKey, err)
	}
	return nil
}

// Extractions lists every extraction of a case, newest first.
func (l *Ledger) Extractions(caseKey string) ([]*Extraction, error) {
	rows, err := l.db.Query(`
		SELECT extraction_id, sweep_id, case_key, statepoint, neutron_csv, photon_csv,
		       neutron_rows, photon_rows, created_at
		FROM extractions
		WHERE case_key = ?
		ORDER BY created_at DESC`, caseKey)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var out []*Extraction
	for rows.Next() {
		var e Extraction
		if err := rows.Scan(&e.ExtractionID, &e.SweepID, &e.CaseKey, &e.Statepoint, &e.NeutronCSV, &e.PhotonCSV,
			&e.NeutronRows, &e.PhotonRows, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
