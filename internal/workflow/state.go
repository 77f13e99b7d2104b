package workflow

import (
	"time"

	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/regime"
	"argus/pkg/errors"
)

// Phase enumerates the explicit states of a research run. Transitions are
// validated against the table below; there is no implicit fallthrough.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhaseAcquisition     Phase = "acquisition"
	PhaseRegime          Phase = "regime_detection"
	PhaseAnalysts        Phase = "analysts"
	PhaseResearchDebate  Phase = "research_debate"
	PhaseResearchVerdict Phase = "research_verdict"
	PhaseTrading         Phase = "trading"
	PhaseRiskDebate      Phase = "risk_debate"
	PhaseRiskVerdict     Phase = "risk_verdict"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseFailed }

// transitions is the complete legal edge set. Every phase may additionally
// fail; that edge is implicit in canTransition.
var transitions = map[Phase][]Phase{
	PhaseInit:            {PhaseAcquisition},
	PhaseAcquisition:     {PhaseRegime},
	PhaseRegime:          {PhaseAnalysts},
	PhaseAnalysts:        {PhaseResearchDebate},
	PhaseResearchDebate:  {PhaseResearchVerdict},
	PhaseResearchVerdict: {PhaseTrading},
	PhaseTrading:         {PhaseRiskDebate},
	PhaseRiskDebate:      {PhaseRiskVerdict},
	PhaseRiskVerdict:     {PhaseDone},
}

func canTransition(from, to Phase) bool {
	if to == PhaseFailed {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// State is the mutable run state owned by the orchestrator. Nodes only ever
// see read-only views of it.
type State struct {
	RunID     string
	Symbol    string
	TradeDate time.Time
	Phase     Phase

	Ledger *marketdata.FactLedger
	Regime *regime.Metrics

	// Transcript is the full ordered record of the run, across phases.
	Transcript []agents.Turn

	AnalystReports map[agents.Role]string
	InvestmentPlan string
	TraderPlan     string
	FinalRationale string
	Decision       string

	Err error
}

func newState(runID, symbol string, tradeDate time.Time) *State {
	return &State{
		RunID:          runID,
		Symbol:         symbol,
		TradeDate:      tradeDate,
		Phase:          PhaseInit,
		AnalystReports: make(map[agents.Role]string),
	}
}

// advanceTo moves the state machine along a legal edge.
func (s *State) advanceTo(p Phase) error {
	if !canTransition(s.Phase, p) {
		return errors.NewWorkflowError(string(s.Phase), "illegal transition to "+string(p))
	}
	s.Phase = p
	return nil
}

// record appends a turn to the master transcript.
func (s *State) record(t agents.Turn) {
	s.Transcript = append(s.Transcript, t)
}

// runContext builds the read-only context handed to nodes.
func (s *State) runContext() agents.RunContext {
	return agents.RunContext{
		Symbol:    s.Symbol,
		TradeDate: s.TradeDate,
		Ledger:    s.Ledger,
		Regime:    s.Regime,
	}
}
