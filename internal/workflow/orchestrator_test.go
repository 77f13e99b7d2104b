package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/regime"
	"argus/internal/snapshot"
	"argus/pkg/errors"
)

type stubAcquirer struct {
	ledger *marketdata.FactLedger
	err    error
	calls  int
}

func (s *stubAcquirer) Acquire(_ context.Context, _ string, _ time.Time, _ []marketdata.Capability) (*marketdata.FactLedger, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ledger, nil
}

type stubExecutor struct {
	out   string
	err   error
	calls int
	tools []string
}

func (s *stubExecutor) Invoke(_ context.Context, _ agents.Role, name string, _ agents.RunContext, _ map[string]string) (string, error) {
	s.calls++
	s.tools = append(s.tools, name)
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func risingLedger(t *testing.T) *marketdata.FactLedger {
	t.Helper()

	var b strings.Builder
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.4f,%.4f,1000\n",
			start.AddDate(0, 0, i).Format("2006-01-02"), price, price*1.015, price*0.995, price*1.01)
		price *= 1.01
	}
	series, err := marketdata.ParsePriceSeries("fixture", []byte(b.String()))
	require.NoError(t, err)

	ledger := marketdata.NewFactLedger("AAPL", start.AddDate(0, 0, 60))
	require.NoError(t, ledger.Put(series))
	ledger.Freeze()
	return ledger
}

// defaultNodes wires a scripted node per role; overrides replace individual
// roles.
func defaultNodes(overrides map[agents.Role]agents.Node) map[agents.Role]agents.Node {
	nodes := map[agents.Role]agents.Node{
		agents.RoleMarketAnalyst:  agents.NewScriptedNode(agents.RoleMarketAnalyst, agents.MessageOutput("market report")),
		agents.RoleBullResearcher: agents.NewScriptedNode(agents.RoleBullResearcher, agents.MessageOutput("bull case")),
		agents.RoleBearResearcher: agents.NewScriptedNode(agents.RoleBearResearcher, agents.MessageOutput("bear case")),
		agents.RoleResearchManager: agents.NewScriptedNode(agents.RoleResearchManager,
			agents.VerdictOutput("go long. FINAL TRANSACTION PROPOSAL: **BUY**")),
		agents.RoleTrader: agents.NewScriptedNode(agents.RoleTrader,
			agents.MessageOutput("scale in over two days. FINAL TRANSACTION PROPOSAL: **BUY**")),
		agents.RoleRiskyDebater:   agents.NewScriptedNode(agents.RoleRiskyDebater, agents.MessageOutput("press the position")),
		agents.RoleSafeDebater:    agents.NewScriptedNode(agents.RoleSafeDebater, agents.MessageOutput("cap the exposure")),
		agents.RoleNeutralDebater: agents.NewScriptedNode(agents.RoleNeutralDebater, agents.MessageOutput("size it moderately")),
		agents.RoleRiskJudge: agents.NewScriptedNode(agents.RoleRiskJudge,
			agents.VerdictOutput("approved with limits. FINAL TRANSACTION PROPOSAL: **BUY**")),
	}
	for role, node := range overrides {
		nodes[role] = node
	}
	return nodes
}

func testConfig() RunConfig {
	return RunConfig{
		Analysts:        []agents.Role{agents.RoleMarketAnalyst},
		MaxDebateRounds: 1,
		MaxRiskRounds:   1,
		MaxToolCalls:    4,
	}
}

func newTestOrchestrator(cfg RunConfig, acquirer DataAcquirer, executor ToolExecutor, nodes map[agents.Role]agents.Node, store snapshot.Store) *Orchestrator {
	return NewOrchestrator(cfg, acquirer, regime.NewDetector(regime.DefaultPolicy()), executor, nodes, store)
}

func speakerCounts(transcript []agents.Turn) map[agents.Role]int {
	counts := make(map[agents.Role]int)
	for _, turn := range transcript {
		counts[turn.Speaker]++
	}
	return counts
}

func TestRunCompletesEndToEnd(t *testing.T) {
	acquirer := &stubAcquirer{ledger: risingLedger(t)}
	executor := &stubExecutor{out: "RSI(14): 62.00"}

	orch := newTestOrchestrator(testConfig(), acquirer, executor, defaultNodes(nil), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, result.FinalPhase)
	assert.Equal(t, "BUY", result.Decision)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.InvestmentPlan)
	assert.NotEmpty(t, result.TraderPlan)

	require.NotNil(t, result.Regime)
	assert.Equal(t, regime.LabelTrendingUp, result.Regime.Label)

	counts := speakerCounts(result.Transcript)
	assert.Equal(t, 1, counts[agents.RoleMarketAnalyst])
	assert.Equal(t, 1, counts[agents.RoleBullResearcher])
	assert.Equal(t, 1, counts[agents.RoleBearResearcher])
	assert.Equal(t, 1, counts[agents.RoleRiskJudge])
}

func TestDebateRunsConfiguredRounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDebateRounds = 2
	cfg.MaxRiskRounds = 2

	orch := newTestOrchestrator(cfg, &stubAcquirer{ledger: risingLedger(t)}, &stubExecutor{}, defaultNodes(nil), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())
	require.NoError(t, err)

	counts := speakerCounts(result.Transcript)
	// one turn per participant per full round
	assert.Equal(t, 2, counts[agents.RoleBullResearcher])
	assert.Equal(t, 2, counts[agents.RoleBearResearcher])
	assert.Equal(t, 2, counts[agents.RoleRiskyDebater])
	assert.Equal(t, 2, counts[agents.RoleSafeDebater])
	assert.Equal(t, 2, counts[agents.RoleNeutralDebater])
}

func TestZeroRoundsSkipStraightToJudges(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDebateRounds = 0
	cfg.MaxRiskRounds = 0

	orch := newTestOrchestrator(cfg, &stubAcquirer{ledger: risingLedger(t)}, &stubExecutor{}, defaultNodes(nil), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, result.FinalPhase)
	assert.Equal(t, "BUY", result.Decision)

	counts := speakerCounts(result.Transcript)
	assert.Zero(t, counts[agents.RoleBullResearcher])
	assert.Zero(t, counts[agents.RoleBearResearcher])
	assert.Zero(t, counts[agents.RoleRiskyDebater])
	assert.Equal(t, 1, counts[agents.RoleResearchManager])
	assert.Equal(t, 1, counts[agents.RoleRiskJudge])
}

func TestAcquisitionFailureStopsBeforeAnalysts(t *testing.T) {
	daErr := errors.NewDataAcquisitionError("price_series", []string{"yfinance", "finnhub"}, errors.ErrUnavailable)
	analyst := agents.NewScriptedNode(agents.RoleMarketAnalyst, agents.MessageOutput("never spoken"))

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{err: daErr}, &stubExecutor{},
		defaultNodes(map[agents.Role]agents.Node{agents.RoleMarketAnalyst: analyst}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())

	var got *errors.DataAcquisitionError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, PhaseFailed, result.FinalPhase)
	assert.Empty(t, result.Transcript)
	assert.Zero(t, analyst.Calls())
}

func TestAnalystToolLoop(t *testing.T) {
	analyst := agents.NewScriptedNode(agents.RoleMarketAnalyst,
		agents.ToolCallOutput("technical_indicators", nil),
		agents.ToolCallOutput(marketdata.CapabilityPriceSeries, map[string]string{"start_date": "2024-01-01"}),
		agents.MessageOutput("market report"))
	executor := &stubExecutor{out: "tool data"}

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{ledger: risingLedger(t)}, executor,
		defaultNodes(map[agents.Role]agents.Node{agents.RoleMarketAnalyst: analyst}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, result.FinalPhase)
	assert.Equal(t, 2, executor.calls)
	assert.Equal(t, []string{"technical_indicators", "price_series"}, executor.tools)
}

func TestToolFailureIsSurfacedNotFatal(t *testing.T) {
	analyst := agents.NewScriptedNode(agents.RoleMarketAnalyst,
		agents.ToolCallOutput(marketdata.CapabilityPriceSeries, nil),
		agents.MessageOutput("report built without the extra fetch"))
	executor := &stubExecutor{err: errors.ErrUnavailable}

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{ledger: risingLedger(t)}, executor,
		defaultNodes(map[agents.Role]agents.Node{agents.RoleMarketAnalyst: analyst}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.FinalPhase)
	assert.Equal(t, 1, executor.calls)
}

func TestToolBudgetForcesFinalization(t *testing.T) {
	cfg := testConfig()
	cfg.MaxToolCalls = 1

	analyst := agents.NewScriptedNode(agents.RoleMarketAnalyst,
		agents.ToolCallOutput(marketdata.CapabilityPriceSeries, nil),
		agents.ToolCallOutput(marketdata.CapabilityPriceSeries, nil),
		agents.MessageOutput("report"))
	executor := &stubExecutor{out: "tool data"}

	orch := newTestOrchestrator(cfg, &stubAcquirer{ledger: risingLedger(t)}, executor,
		defaultNodes(map[agents.Role]agents.Node{agents.RoleMarketAnalyst: analyst}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.FinalPhase)
	// the second request was refused, not executed
	assert.Equal(t, 1, executor.calls)
}

func TestUncooperativeAnalystCannotStallTheRun(t *testing.T) {
	cfg := testConfig()
	cfg.MaxToolCalls = 0

	// keeps demanding tools even after being told to finalize
	analyst := agents.NewScriptedNode(agents.RoleMarketAnalyst,
		agents.ToolCallOutput(marketdata.CapabilityPriceSeries, nil))
	executor := &stubExecutor{}

	orch := newTestOrchestrator(cfg, &stubAcquirer{ledger: risingLedger(t)}, executor,
		defaultNodes(map[agents.Role]agents.Node{agents.RoleMarketAnalyst: analyst}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, result.FinalPhase)
	// the phase advanced with a forced report; no tool was ever executed
	assert.Zero(t, executor.calls)
	assert.Contains(t, result.Transcript[0].Content, "did not finalize")
}

func TestJudgeMustReturnVerdict(t *testing.T) {
	manager := agents.NewScriptedNode(agents.RoleResearchManager, agents.MessageOutput("just a message"))

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{ledger: risingLedger(t)}, &stubExecutor{},
		defaultNodes(map[agents.Role]agents.Node{agents.RoleResearchManager: manager}), nil)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())

	var werr *errors.WorkflowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, PhaseFailed, result.FinalPhase)
}

func TestCanceledRunPersistsPartialSnapshot(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{ledger: risingLedger(t)}, &stubExecutor{},
		defaultNodes(nil), store)
	result, err := orch.Run(ctx, "AAPL", time.Now())
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, result.FinalPhase)

	rec, err := store.Load(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(PhaseFailed), rec.Phase)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Empty(t, rec.Decision)
}

func TestCompletedRunPersistsDecision(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)

	orch := newTestOrchestrator(testConfig(), &stubAcquirer{ledger: risingLedger(t)}, &stubExecutor{},
		defaultNodes(nil), store)
	result, err := orch.Run(context.Background(), "AAPL", time.Now())
	require.NoError(t, err)

	rec, err := store.Load(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(PhaseDone), rec.Phase)
	assert.Equal(t, "BUY", rec.Decision)
	assert.NotEmpty(t, rec.Ledger)
	assert.NotEmpty(t, rec.Transcript)
	assert.NotEmpty(t, rec.Regime)
}
