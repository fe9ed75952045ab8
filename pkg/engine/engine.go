package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mrhapile/car-diagnoser/pkg/rules"
	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// Name is reported in every DiagnosisReport.
const Name = "rule-based"

// Diagnose matches and ranks in one step. It is a pure function that:
//   - Never mutates the input
//   - Never performs I/O
//   - Produces deterministic, repeatable output
//
// An empty symptom set yields an empty, non-nil result.
func Diagnose(kb *rules.KnowledgeBase, vehicle types.Vehicle, symptoms types.SymptomSet) []types.DiagnosticResult {
	return Rank(Match(kb, vehicle, symptoms))
}

// Request is one diagnose call against an Engine.
type Request struct {
	Vehicle  types.Vehicle       `json:"vehicle"`
	Symptoms []types.Observation `json:"symptoms"`

	// Limit truncates the ranked results; 0 means no limit.
	Limit int `json:"limit,omitempty"`
}

// Engine runs diagnoses against the current snapshot of a rules.Store.
type Engine struct {
	store *rules.Store
	now   func() time.Time
	newID func() string
}

func New(store *rules.Store) (*Engine, error) {
	if store == nil || store.Load() == nil {
		return nil, errors.New("engine requires a loaded knowledge base")
	}
	return &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}, nil
}

// KnowledgeBase returns the snapshot new requests will use.
func (e *Engine) KnowledgeBase() *rules.KnowledgeBase {
	return e.store.Load()
}

// Analyze validates the vehicle shape and diagnoses the request. The only
// error it returns wraps types.ErrInvalidVehicle; no match is not an error.
func (e *Engine) Analyze(req Request) (types.DiagnosisReport, error) {
	if err := req.Vehicle.Validate(); err != nil {
		return types.DiagnosisReport{}, err
	}

	// Pin one snapshot for the whole request.
	kb := e.store.Load()
	results := Diagnose(kb, req.Vehicle, types.SymptomSetFromObservations(req.Symptoms))
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}

	observations := req.Symptoms
	if observations == nil {
		observations = []types.Observation{}
	}

	return types.DiagnosisReport{
		ID:                   e.newID(),
		Vehicle:              req.Vehicle,
		Symptoms:             observations,
		Results:              results,
		GeneratedAt:          e.now(),
		Engine:               Name,
		KnowledgeBaseVersion: kb.Version(),
	}, nil
}
