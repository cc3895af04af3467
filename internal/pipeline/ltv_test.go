package pipeline

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roiflow/internal/feed"
)

func txn(deviceID, txnID, amount string) feed.Transaction {
	return feed.Transaction{
		DeviceID:      deviceID,
		TransactionID: txnID,
		OccurredAt:    testDay,
		Revenue:       decimal.RequireFromString(amount),
	}
}

func TestAggregateLTVSumsPerDevice(t *testing.T) {
	totals := AggregateLTV([]feed.Transaction{
		txn("dev-1", "t-1", "20"),
		txn("dev-1", "t-2", "30"),
		txn("dev-2", "t-3", "5.25"),
	}, 0)

	require.Len(t, totals, 2)
	assert.True(t, totals["dev-1"].Equal(decimal.NewFromInt(50)))
	assert.True(t, totals["dev-2"].Equal(decimal.RequireFromString("5.25")))
}

// Adding one transaction of revenue R raises exactly that device's total by
// exactly R and leaves every other device untouched.
func TestAggregateLTVMonotonicity(t *testing.T) {
	base := []feed.Transaction{
		txn("dev-1", "t-1", "10.10"),
		txn("dev-2", "t-2", "7.77"),
	}

	before := AggregateLTV(base, 0)
	after := AggregateLTV(append(base, txn("dev-1", "t-3", "2.40")), 0)

	assert.True(t, after["dev-1"].Sub(before["dev-1"]).Equal(decimal.RequireFromString("2.40")))
	assert.True(t, after["dev-2"].Equal(before["dev-2"]))
}

// Decimal accumulation must not drift: summing 0.10 ten thousand times is
// exactly 1000, which float64 accumulation cannot promise.
func TestAggregateLTVNoRoundingDrift(t *testing.T) {
	var txns []feed.Transaction
	for i := 0; i < 10000; i++ {
		txns = append(txns, txn("dev-1", fmt.Sprintf("t-%d", i), "0.10"))
	}

	totals := AggregateLTV(txns, 0)
	assert.True(t, totals["dev-1"].Equal(decimal.NewFromInt(1000)), "got %s", totals["dev-1"])
}

// Sharded aggregation is a pure optimization: totals match the sequential
// result for every worker count.
func TestAggregateLTVShardingIsObservationallyEqual(t *testing.T) {
	var txns []feed.Transaction
	for i := 0; i < 500; i++ {
		txns = append(txns, txn(fmt.Sprintf("dev-%d", i%37), fmt.Sprintf("t-%d", i), "1.01"))
	}

	sequential := AggregateLTV(txns, 0)
	for _, workers := range []int{2, 4, 8} {
		sharded := AggregateLTV(txns, workers)
		require.Len(t, sharded, len(sequential), "workers=%d", workers)
		for deviceID, want := range sequential {
			assert.True(t, sharded[deviceID].Equal(want), "workers=%d device=%s", workers, deviceID)
		}
	}
}

func TestAggregateLTVEmptyInput(t *testing.T) {
	assert.Empty(t, AggregateLTV(nil, 4))
}
