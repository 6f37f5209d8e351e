package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
)

func writeCase(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const twoStepCase = `[
  {
    "stage": "submit buy",
    "test_action": "buy",
    "parameters": {"code": "600001", "price": 10.0, "volume": 100},
    "trade_result": {
      "entrust_no": "fixed-1",
      "code": "600001",
      "price": 10.0,
      "volume": 100,
      "order_side": 1,
      "status": 3,
      "filled": 100,
      "average_price": 10.0
    }
  },
  {
    "stage": "broker fill",
    "test_action": "entrust_update",
    "entrust_update": {
      "entrust_no": "fixed-1",
      "code": "600001",
      "order_side": 1,
      "status": 3,
      "filled": 100,
      "average_price": 10.0
    }
  }
]`

func TestLoader_ReadNormalizesTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "two_step.json", twoStepCase)

	l := NewLoader(dir, zap.NewNop())
	steps, err := l.Read("two_step")
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, domain.ActionBuy, steps[0].Action)
	assert.NotEmpty(t, steps[0].TradeResult.Items[0].Time)
	assert.NotEmpty(t, steps[0].TradeResult.Items[0].RecvAt)
	assert.NotEmpty(t, steps[1].EntrustUpdate.Items[0].Time)

	// Multi-step scripts keep their authored entrust ids.
	assert.Equal(t, "fixed-1", steps[0].TradeResult.Items[0].EntrustNo)
}

func TestLoader_ReadAcceptsExtension(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "two_step.json", twoStepCase)

	l := NewLoader(dir, zap.NewNop())
	_, err := l.Read("two_step.json")
	require.NoError(t, err)
}

func TestLoader_SingleTradeStepGetsFreshIDs(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "one_buy.json", `[
	  {
	    "stage": "submit buy",
	    "test_action": "market_buy",
	    "parameters": {"code": "600001", "price": 0, "volume": 100},
	    "trade_result": {
	      "entrust_no": "authored",
	      "code": "600001",
	      "order_side": 1,
	      "status": 3,
	      "filled": 100,
	      "average_price": 10.0
	    }
	  }
	]`)

	l := NewLoader(dir, zap.NewNop())
	first, err := l.Read("one_buy")
	require.NoError(t, err)
	second, err := l.Read("one_buy")
	require.NoError(t, err)

	id1 := first[0].TradeResult.Items[0].EntrustNo
	id2 := second[0].TradeResult.Items[0].EntrustNo
	assert.NotEqual(t, "authored", id1)
	assert.NotEqual(t, id1, id2, "repeated loads must mint distinct entrust ids")
	assert.NotEmpty(t, first[0].TradeResult.Items[0].Eid)
}

func TestLoader_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "broken.json", `[{"stage": "x",`)

	l := NewLoader(dir, zap.NewNop())
	_, err := l.Read("broken")
	require.Error(t, err)
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), zap.NewNop())
	_, err := l.Read("nope")
	require.Error(t, err)
}

func TestLoader_ValidatesStepShape(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"unknown action",
			`[{"stage": "x", "test_action": "settle"}]`,
		},
		{
			"trade step without parameters",
			`[{"stage": "x", "test_action": "buy", "trade_result": {"entrust_no": "e1", "code": "600001"}}]`,
		},
		{
			"trade step without result",
			`[{"stage": "x", "test_action": "buy", "parameters": {"code": "600001", "price": 1, "volume": 10}}]`,
		},
		{
			"entrust_update without record",
			`[{"stage": "x", "test_action": "entrust_update"}]`,
		},
		{
			"cancel_entrust with list",
			`[{"stage": "x", "test_action": "cancel_entrust",
			   "parameters": {"entrust_no": ["e1", "e2"]},
			   "trade_result": {"entrust_no": "e1", "code": "600001"}}]`,
		},
		{
			"cancel_entrusts with single id",
			`[{"stage": "x", "test_action": "cancel_entrusts",
			   "parameters": {"entrust_no": "e1"},
			   "trade_result": [{"entrust_no": "e1", "code": "600001"}]}]`,
		},
		{
			"cancel_entrusts with single result",
			`[{"stage": "x", "test_action": "cancel_entrusts",
			   "parameters": {"entrust_no": ["e1"]},
			   "trade_result": {"entrust_no": "e1", "code": "600001"}}]`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCase(t, dir, "case.json", tc.content)

			l := NewLoader(dir, zap.NewNop())
			_, err := l.Read("case")
			require.Error(t, err)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCaseName(t *testing.T) {
	assert.Equal(t, "two_step", CaseName("two_step.json"))
	assert.Equal(t, "plain", CaseName("plain"))
}
