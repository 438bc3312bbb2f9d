package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Luismorlan/ticket_chain/model"
)

// RunMiner seals the pending pool every interval until ctx is done. Ticks with an empty pool are
// skipped. onBlock, if set, is called with every appended block.
func (l *Ledger) RunMiner(ctx context.Context, interval time.Duration, now func() time.Time, onBlock func(*model.Block)) {
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if len(l.Pending()) == 0 {
			continue
		}
		block, err := l.MineBlock(ctx, now().Unix())
		if err != nil {
			if !errors.Is(err, model.ErrMiningCanceled) {
				l.logger.Error("background mining failed", "error", err)
			}
			continue
		}
		if onBlock != nil {
			onBlock(block)
		}
	}
}
