package backtest

import (
	"encoding/json"
	"testing"

	"github.com/newthinker/quantbench/internal/core"
)

func TestResult_HasTrades(t *testing.T) {
	r := &Result{}
	if r.HasTrades() {
		t.Error("empty result should have no trades")
	}
	r.Trades = append(r.Trades, TradeEvent{Action: core.ActionBuy})
	if !r.HasTrades() {
		t.Error("expected trades")
	}
}

func TestSummary_JSONNullSharpe(t *testing.T) {
	data, err := json.Marshal(Summary{FinalValue: 10000})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, ok := raw["sharpe_ratio"]
	if !ok {
		t.Fatal("sharpe_ratio key missing")
	}
	if v != nil {
		t.Errorf("sharpe_ratio = %v, want null", v)
	}
	if raw["final_value"] != 10000.0 {
		t.Errorf("final_value = %v", raw["final_value"])
	}
}
