package ledger

import (
	"testing"

	"microcap_trading/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStopLossUpdates(t *testing.T) {
	p := NewPortfolio(d("100"), epoch)
	p, _ = mustApply(t, p, buy("ABCD", 1, "5"))
	p, _ = mustApply(t, p, buy("EFGH", 1, "5"))

	next, unmatched := ApplyStopLossUpdates(p, []models.StopLossUpdate{
		{Ticker: "ABCD", StopLoss: d("4.25")},
		{Ticker: "NOPE", StopLoss: d("1")},
	})

	assert.Equal(t, []string{"NOPE"}, unmatched)
	require.NotNil(t, next.Positions[0].StopLoss)
	assert.True(t, next.Positions[0].StopLoss.Equal(d("4.25")))
	assert.Nil(t, next.Positions[1].StopLoss)
	assert.Len(t, next.Positions, 2)

	// input untouched
	assert.Nil(t, p.Positions[0].StopLoss)
}

func TestApplyStopLossUpdates_OnlyUnmatched(t *testing.T) {
	p, _ := mustApply(t, NewPortfolio(d("100"), epoch), buy("ABCD", 1, "5"))
	before := snapshotJSON(t, p)

	next, unmatched := ApplyStopLossUpdates(p, []models.StopLossUpdate{{Ticker: "NOPE", StopLoss: d("1")}})

	assert.Equal(t, []string{"NOPE"}, unmatched)
	assert.Equal(t, before, snapshotJSON(t, next))
}
