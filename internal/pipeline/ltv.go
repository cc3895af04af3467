package pipeline

import (
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"

	"roiflow/internal/feed"
)

// AggregateLTV folds all transactions into a per-device lifetime revenue
// total. Sums use decimal arithmetic so large transaction counts cannot
// drift the way binary floating point would.
//
// With workers > 1 the transactions are sharded by device hash and each
// shard is summed concurrently. Sharding is a pure optimization: a device's
// transactions all land in one shard, so the totals are identical to the
// sequential result.
func AggregateLTV(transactions []feed.Transaction, workers int) map[string]decimal.Decimal {
	if workers <= 1 || len(transactions) < 2 {
		return sumByDevice(transactions)
	}

	shards := make([][]feed.Transaction, workers)
	for _, txn := range transactions {
		i := shardFor(txn.DeviceID, workers)
		shards[i] = append(shards[i], txn)
	}

	partials := make([]map[string]decimal.Decimal, workers)
	var wg sync.WaitGroup
	for i := range shards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partials[i] = sumByDevice(shards[i])
		}(i)
	}
	wg.Wait()

	merged := make(map[string]decimal.Decimal)
	for _, partial := range partials {
		for deviceID, total := range partial {
			merged[deviceID] = total
		}
	}
	return merged
}

func sumByDevice(transactions []feed.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, txn := range transactions {
		totals[txn.DeviceID] = totals[txn.DeviceID].Add(txn.Revenue)
	}
	return totals
}

func shardFor(deviceID string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	return int(h.Sum32() % uint32(workers))
}
