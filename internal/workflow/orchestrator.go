package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"argus/internal/adapters/config"
	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/metrics"
	"argus/internal/regime"
	"argus/internal/snapshot"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// ToolExecutor serves on-demand tool calls during the analyst phase. The
// tool executor satisfies it; tests substitute scripted implementations.
type ToolExecutor interface {
	Invoke(ctx context.Context, role agents.Role, name string, rc agents.RunContext, args map[string]string) (string, error)
}

// DataAcquirer performs the bulk pre-fetch. The registrar satisfies it.
type DataAcquirer interface {
	Acquire(ctx context.Context, symbol string, tradeDate time.Time, caps []marketdata.Capability) (*marketdata.FactLedger, error)
}

// RunConfig is the per-run shape of the pipeline: which analysts speak and
// how long each debate runs.
type RunConfig struct {
	Analysts        []agents.Role
	MaxDebateRounds int
	MaxRiskRounds   int
	MaxToolCalls    int
}

// NewRunConfig resolves the env-level workflow config into roles.
func NewRunConfig(cfg config.WorkflowConfig) (RunConfig, error) {
	analysts, err := agents.ParseAnalysts(cfg.Analysts)
	if err != nil {
		return RunConfig{}, err
	}
	return RunConfig{
		Analysts:        analysts,
		MaxDebateRounds: cfg.MaxDebateRounds,
		MaxRiskRounds:   cfg.MaxRiskDiscussRounds,
		MaxToolCalls:    cfg.MaxToolCalls,
	}, nil
}

// Result is the terminal output of one run.
type Result struct {
	RunID          string
	Symbol         string
	TradeDate      time.Time
	Decision       string
	InvestmentPlan string
	TraderPlan     string
	FinalRationale string
	Regime         *regime.Metrics
	Ledger         *marketdata.FactLedger
	Transcript     []agents.Turn
	FinalPhase     Phase
}

// Orchestrator drives a run through the phase machine. It owns all mutable
// state; nodes receive read-only views and return outputs.
type Orchestrator struct {
	cfg      RunConfig
	acquirer DataAcquirer
	detector *regime.Detector
	executor ToolExecutor
	nodes    map[agents.Role]agents.Node
	store    snapshot.Store
	log      *logger.Logger
}

// NewOrchestrator wires the pipeline. The snapshot store may be nil, in
// which case runs are not persisted.
func NewOrchestrator(cfg RunConfig, acquirer DataAcquirer, detector *regime.Detector, executor ToolExecutor, nodes map[agents.Role]agents.Node, store snapshot.Store) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		acquirer: acquirer,
		detector: detector,
		executor: executor,
		nodes:    nodes,
		store:    store,
		log:      logger.Get().With("component", "orchestrator"),
	}
}

// Run executes the full pipeline for one symbol and trade date.
func (o *Orchestrator) Run(ctx context.Context, symbol string, tradeDate time.Time) (*Result, error) {
	state := newState(uuid.New().String(), symbol, tradeDate)
	o.log.Infow("run starting", "run_id", state.RunID, "symbol", symbol,
		"trade_date", tradeDate.Format("2006-01-02"))

	if err := o.runPhases(ctx, state); err != nil {
		return o.fail(state, err)
	}

	metrics.RunsCompleted.WithLabelValues("completed").Inc()
	o.persist(state)
	o.log.Infow("run complete", "run_id", state.RunID, "decision", state.Decision)
	return resultFromState(state), nil
}

func (o *Orchestrator) runPhases(ctx context.Context, state *State) error {
	steps := []struct {
		phase Phase
		run   func(context.Context, *State) error
	}{
		{PhaseAcquisition, o.acquire},
		{PhaseRegime, o.detectRegime},
		{PhaseAnalysts, o.runAnalysts},
		{PhaseResearchDebate, o.runResearchDebate},
		{PhaseResearchVerdict, o.runResearchVerdict},
		{PhaseTrading, o.runTrader},
		{PhaseRiskDebate, o.runRiskDebate},
		{PhaseRiskVerdict, o.runRiskVerdict},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "run canceled before %s", step.phase)
		}
		if err := state.advanceTo(step.phase); err != nil {
			return err
		}

		start := time.Now()
		err := step.run(ctx, state)
		metrics.PhaseDuration.WithLabelValues(string(step.phase)).Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
	}

	return state.advanceTo(PhaseDone)
}

// fail marks the run failed, persists whatever exists, and still returns a
// result so callers can inspect the partial run.
func (o *Orchestrator) fail(state *State, err error) (*Result, error) {
	state.Err = err
	if !state.Phase.Terminal() {
		state.Phase = PhaseFailed
	}
	metrics.RunsCompleted.WithLabelValues("failed").Inc()
	o.persist(state)
	o.log.Errorw("run failed", "run_id", state.RunID, "phase", state.Phase, "error", err)
	return resultFromState(state), err
}

func (o *Orchestrator) acquire(ctx context.Context, state *State) error {
	caps := agents.RequiredCapabilities(o.cfg.Analysts)
	ledger, err := o.acquirer.Acquire(ctx, state.Symbol, state.TradeDate, caps)
	if err != nil {
		return err
	}
	state.Ledger = ledger
	return nil
}

// detectRegime classifies the market from the pre-fetched price series. A
// run without a price series (no market analyst selected) proceeds without
// regime context; a series too short to classify does too, with a warning.
func (o *Orchestrator) detectRegime(_ context.Context, state *State) error {
	series, ok := state.Ledger.PriceSeries()
	if !ok {
		o.log.Infow("no price series on file, skipping regime detection", "run_id", state.RunID)
		return nil
	}

	m, err := o.detector.Detect(series)
	if err != nil {
		o.log.Warnf("regime detection skipped: %v", err)
		return nil
	}
	state.Regime = m
	o.log.Infow("regime detected", "run_id", state.RunID, "label", m.Label)
	return nil
}

func (o *Orchestrator) runAnalysts(ctx context.Context, state *State) error {
	for _, role := range o.cfg.Analysts {
		report, err := o.runAnalyst(ctx, state, role)
		if err != nil {
			return err
		}
		state.AnalystReports[role] = report
		state.record(agents.Turn{Speaker: role, Content: report, At: time.Now()})
	}
	return nil
}

// runAnalyst drives one analyst's tool loop to a final report. Tool failures
// are surfaced to the model as data-delivery turns, never as run failures;
// once the call budget is spent the analyst is told to finalize.
func (o *Orchestrator) runAnalyst(ctx context.Context, state *State, role agents.Role) (string, error) {
	node, err := o.node(role)
	if err != nil {
		return "", err
	}
	rc := state.runContext()

	var conv []agents.Turn
	if cap, ok := agents.PrimaryCapability(role); ok {
		if payload, found := state.Ledger.Get(cap); found {
			conv = append(conv, agents.Turn{
				Speaker: role, Content: payload.Render(), IsToolResult: true, At: time.Now(),
			})
		}
	}

	toolCalls := 0
	budgetNotified := false
	for {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrapf(err, "run canceled during %s", role)
		}

		out, err := node.Step(ctx, agents.NewView(conv), rc)
		if err != nil {
			return "", err
		}

		if out.Kind != agents.KindToolCall {
			return out.Content, nil
		}

		if toolCalls >= o.cfg.MaxToolCalls {
			if budgetNotified {
				// the node ignored the finalize instruction; advance the
				// phase with what the transcript holds instead of stalling
				o.log.Warnw("analyst exceeded tool allowance, forcing report",
					"run_id", state.RunID, "role", role)
				return forcedReport(role, conv), nil
			}
			budgetNotified = true
			conv = append(conv, agents.Turn{
				Speaker:      role,
				Content:      "Tool budget exhausted. Finalize your report using the data already delivered.",
				IsToolResult: true,
				At:           time.Now(),
			})
			continue
		}
		toolCalls++

		name := string(out.ToolCall.Capability)
		conv = append(conv, agents.Turn{
			Speaker:  role,
			Content:  "requested tool " + name,
			ToolCall: out.ToolCall,
			At:       time.Now(),
		})

		result, invokeErr := o.executor.Invoke(ctx, role, name, rc, out.ToolCall.Args)
		if invokeErr != nil {
			result = fmt.Sprintf("Tool %s failed: %v. Do not retry it; proceed with the data on hand.", name, invokeErr)
			o.log.Warnw("tool call failed", "run_id", state.RunID, "role", role, "tool", name, "error", invokeErr)
		}
		conv = append(conv, agents.Turn{
			Speaker: role, Content: result, IsToolResult: true, At: time.Now(),
		})
	}
}

// forcedReport summarizes the data delivered to an analyst that never
// produced a report of its own.
func forcedReport(role agents.Role, conv []agents.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s did not finalize a report; data gathered during the phase follows]\n", role)
	for _, t := range conv {
		if t.IsToolResult {
			b.WriteString(t.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// reportTurns rebuilds the analyst reports as conversation context, in
// analyst order.
func (o *Orchestrator) reportTurns(state *State) []agents.Turn {
	turns := make([]agents.Turn, 0, len(o.cfg.Analysts))
	for _, role := range o.cfg.Analysts {
		if report, ok := state.AnalystReports[role]; ok {
			turns = append(turns, agents.Turn{Speaker: role, Content: report, At: time.Now()})
		}
	}
	return turns
}

// runResearchDebate alternates bull and bear for the configured rounds. Zero
// rounds means the research manager rules on the analyst reports alone.
func (o *Orchestrator) runResearchDebate(ctx context.Context, state *State) error {
	if o.cfg.MaxDebateRounds <= 0 {
		return nil
	}

	order := []agents.Role{agents.RoleBullResearcher, agents.RoleBearResearcher}
	return o.debate(ctx, state, order, o.cfg.MaxDebateRounds, o.reportTurns(state))
}

// runRiskDebate cycles the three risk stances for the configured rounds over
// the trader's plan.
func (o *Orchestrator) runRiskDebate(ctx context.Context, state *State) error {
	if o.cfg.MaxRiskRounds <= 0 {
		return nil
	}

	order := []agents.Role{agents.RoleRiskyDebater, agents.RoleSafeDebater, agents.RoleNeutralDebater}
	return o.debate(ctx, state, order, o.cfg.MaxRiskRounds, o.planTurns(state))
}

// debate runs the participants in fixed order for the given number of full
// rounds, appending every contribution to the master transcript.
func (o *Orchestrator) debate(ctx context.Context, state *State, order []agents.Role, rounds int, seed []agents.Turn) error {
	conv := append([]agents.Turn(nil), seed...)
	rc := state.runContext()

	for round := 0; round < rounds; round++ {
		for _, role := range order {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "run canceled during %s debate turn", role)
			}

			node, err := o.node(role)
			if err != nil {
				return err
			}
			out, err := node.Step(ctx, agents.NewView(conv), rc)
			if err != nil {
				return err
			}
			if out.Kind == agents.KindToolCall {
				return errors.NewWorkflowError(string(state.Phase),
					fmt.Sprintf("%s emitted a tool call outside the analyst phase", role))
			}

			turn := agents.Turn{Speaker: role, Content: out.Content, At: time.Now()}
			conv = append(conv, turn)
			state.record(turn)
		}
	}
	return nil
}

func (o *Orchestrator) runResearchVerdict(ctx context.Context, state *State) error {
	conv := o.reportTurns(state)
	conv = append(conv, o.debateTurns(state, agents.RoleBullResearcher, agents.RoleBearResearcher)...)

	verdict, err := o.verdict(ctx, state, agents.RoleResearchManager, conv)
	if err != nil {
		return err
	}
	state.InvestmentPlan = verdict
	return nil
}

func (o *Orchestrator) runTrader(ctx context.Context, state *State) error {
	node, err := o.node(agents.RoleTrader)
	if err != nil {
		return err
	}

	conv := o.reportTurns(state)
	conv = append(conv, agents.Turn{
		Speaker: agents.RoleResearchManager, Content: state.InvestmentPlan, At: time.Now(),
	})

	out, err := node.Step(ctx, agents.NewView(conv), state.runContext())
	if err != nil {
		return err
	}
	if out.Kind == agents.KindToolCall {
		return errors.NewWorkflowError(string(state.Phase), "trader emitted a tool call")
	}

	state.TraderPlan = out.Content
	state.record(agents.Turn{Speaker: agents.RoleTrader, Content: out.Content, At: time.Now()})
	return nil
}

func (o *Orchestrator) runRiskVerdict(ctx context.Context, state *State) error {
	conv := o.planTurns(state)
	conv = append(conv, o.debateTurns(state,
		agents.RoleRiskyDebater, agents.RoleSafeDebater, agents.RoleNeutralDebater)...)

	verdict, err := o.verdict(ctx, state, agents.RoleRiskJudge, conv)
	if err != nil {
		return err
	}
	state.FinalRationale = verdict
	state.Decision = agents.ExtractSignal(verdict)
	return nil
}

// verdict runs a judge role and requires a verdict output.
func (o *Orchestrator) verdict(ctx context.Context, state *State, role agents.Role, conv []agents.Turn) (string, error) {
	node, err := o.node(role)
	if err != nil {
		return "", err
	}

	out, err := node.Step(ctx, agents.NewView(conv), state.runContext())
	if err != nil {
		return "", err
	}
	if out.Kind != agents.KindVerdict {
		return "", errors.NewWorkflowError(string(state.Phase),
			fmt.Sprintf("%s returned %s, expected a verdict", role, out.Kind))
	}

	state.record(agents.Turn{Speaker: role, Content: out.Content, At: time.Now()})
	return out.Content, nil
}

// planTurns is the seed context for the risk phase: the manager's plan and
// the trader's decision.
func (o *Orchestrator) planTurns(state *State) []agents.Turn {
	return []agents.Turn{
		{Speaker: agents.RoleResearchManager, Content: state.InvestmentPlan, At: time.Now()},
		{Speaker: agents.RoleTrader, Content: state.TraderPlan, At: time.Now()},
	}
}

// debateTurns extracts the recorded contributions of the given speakers from
// the master transcript, preserving order.
func (o *Orchestrator) debateTurns(state *State, speakers ...agents.Role) []agents.Turn {
	want := make(map[agents.Role]bool, len(speakers))
	for _, r := range speakers {
		want[r] = true
	}

	var out []agents.Turn
	for _, t := range state.Transcript {
		if want[t.Speaker] {
			out = append(out, t)
		}
	}
	return out
}

func (o *Orchestrator) node(role agents.Role) (agents.Node, error) {
	n, ok := o.nodes[role]
	if !ok {
		return nil, errors.NewWorkflowError("setup", "no node registered for role "+string(role))
	}
	return n, nil
}

// persist saves a snapshot of the run as it stands. It is best-effort and
// runs on its own context so canceled runs still leave a trail.
func (o *Orchestrator) persist(state *State) {
	if o.store == nil {
		return
	}

	rec := &snapshot.Record{
		RunID:     state.RunID,
		Symbol:    state.Symbol,
		TradeDate: state.TradeDate.Format("2006-01-02"),
		Phase:     string(state.Phase),
		SavedAt:   time.Now().UTC(),
		Decision:  state.Decision,
	}
	if state.Regime != nil {
		if data, err := json.Marshal(state.Regime); err == nil {
			rec.Regime = data
		}
	}
	if state.Ledger != nil {
		if data, err := state.Ledger.Snapshot(); err == nil {
			rec.Ledger = data
		}
	}
	if len(state.Transcript) > 0 {
		if data, err := json.Marshal(state.Transcript); err == nil {
			rec.Transcript = data
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.Save(ctx, rec); err != nil {
		o.log.Warnf("snapshot save failed: %v", err)
	}
}

func resultFromState(state *State) *Result {
	return &Result{
		RunID:          state.RunID,
		Symbol:         state.Symbol,
		TradeDate:      state.TradeDate,
		Decision:       state.Decision,
		InvestmentPlan: state.InvestmentPlan,
		TraderPlan:     state.TraderPlan,
		FinalRationale: state.FinalRationale,
		Regime:         state.Regime,
		Ledger:         state.Ledger,
		Transcript:     state.Transcript,
		FinalPhase:     state.Phase,
	}
}
