package processors

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/patrickmn/go-cache"
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/utils"
)

const ckClosingBalance = "bal_closing_%d_%s_%s"

// BalanceProcessor answers "what is machine M's opening/closing balance on
// date D" from the complete in-memory record history. Balances are never
// stored: every query walks the prior history, so the answer depends only
// on the current record set.
//
// The memo cache is owned by the caller and shared with whatever service
// mutates records; any save, delete or reload must call ClearCache before
// the next derivation, otherwise stale closing balances are served.
type BalanceProcessor struct {
	memo *cache.Cache
	// gen stamps every memo key with the cache generation it was computed
	// under. ClearCache bumps it, so a derivation that started from a
	// pre-mutation record snapshot writes into a key no later read will
	// consult instead of pinning a stale balance.
	gen uint64
}

func NewBalanceProcessor(memo *cache.Cache) *BalanceProcessor {
	return &BalanceProcessor{memo: memo}
}

func (p *BalanceProcessor) memoKey(machineID, date string) string {
	return fmt.Sprintf(ckClosingBalance, atomic.LoadUint64(&p.gen), machineID, date)
}

// OpeningBalance is the cumulative net difference carried in from every
// record of the machine strictly before date. Dates are fixed-width ISO
// strings, so plain string comparison is chronological. The prior records
// are walked in ascending date order and the accumulator is rounded after
// every addition; with no prior history the opening balance is exactly 0.
func (p *BalanceProcessor) OpeningBalance(machineID, date string, records []models.EntryRecord) float64 {
	var prior []models.EntryRecord
	for _, r := range records {
		if r.MachineID == machineID && r.Date < date {
			prior = append(prior, r)
		}
	}
	sort.SliceStable(prior, func(i, j int) bool {
		if prior[i].Date != prior[j].Date {
			return prior[i].Date < prior[j].Date
		}
		return prior[i].Timestamp < prior[j].Timestamp
	})

	balance := 0.0
	for _, r := range prior {
		balance = utils.Add(balance, Difference(r))
	}
	return balance
}

// ClosingBalance is the opening balance plus the day's own difference. When
// no record exists for (machineID, date) the balance carries forward
// unchanged. Results are memoized per (machineID, date); if several records
// somehow share the same machine and date the first one found supplies the
// day's difference, while OpeningBalance's historical walk sums all of
// them; the divergence is deliberate and covered by tests.
func (p *BalanceProcessor) ClosingBalance(machineID, date string, records []models.EntryRecord) float64 {
	key := p.memoKey(machineID, date)
	if cached, found := p.memo.Get(key); found {
		return cached.(float64)
	}

	closing := p.OpeningBalance(machineID, date, records)
	for _, r := range records {
		if r.MachineID == machineID && r.Date == date {
			closing = utils.Add(closing, Difference(r))
			break
		}
	}

	p.memo.Set(key, closing, cache.NoExpiration)
	return closing
}

// ClearCache drops every memoized balance and advances the key generation.
// Dropping everything instead of tracking per-machine keys trades
// recomputation for guaranteed freshness.
func (p *BalanceProcessor) ClearCache() {
	atomic.AddUint64(&p.gen, 1)
	p.memo.Flush()
}
