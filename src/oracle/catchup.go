package oracle

import (
	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/sirupsen/logrus"
)

// syncTarget is the last epoch that can have been committed by the network.
func (o *Oracle) syncTarget() uint64 {
	if current := o.source.CurrentEpoch(); current > 0 {
		return current - 1
	}
	return 0
}

func (o *Oracle) behind() bool {
	return o.source.LastSyncedEpoch() < o.syncTarget()
}

func (o *Oracle) caughtUp() bool {
	return !o.behind()
}

func (o *Oracle) requestTimedOut() bool {
	return o.behind() && o.timer.expired(o.conf.Now(), o.conf.RequestTimeout())
}

// requestRange is the range of missing epochs, capped to MaxRequestEpochs.
// It is empty when start > end.
func (o *Oracle) requestRange() (uint64, uint64) {
	start := o.source.LastSyncedEpoch() + 1
	end := o.syncTarget()
	if max := uint64(o.conf.MaxRequestEpochs); max > 0 && end >= start && end-start+1 > max {
		end = start + max - 1
	}
	return start, end
}

// requestAgreedTables is the S8 callback. It records which peers hold, or
// lack, the epochs this oracle is missing, and rebroadcasts its request for
// them.
func (o *Oracle) requestAgreedTables() error {
	c := o.catchUp
	c.start, c.end = o.requestRange()

	for _, m := range o.receive() {
		sender := m.Sender()

		if m.Stage == RequestAgreedMedianTable {
			// a lagging peer holds nothing from its start epoch on
			for e := maxEpoch(m.StartEpoch, c.start); e <= c.end; e++ {
				c.lack(e, sender)
			}
			continue
		}

		held := make(map[uint64]struct{}, len(m.EpochAgreedMedianTable))
		for _, et := range m.EpochAgreedMedianTable {
			if et.Epoch < c.start || et.Epoch > c.end {
				continue
			}
			held[et.Epoch] = struct{}{}
			c.answer(et.Epoch, sender, et.Table)
		}
		for e := c.start; e <= c.end; e++ {
			if _, ok := held[e]; !ok {
				c.lack(e, sender)
			}
		}
	}

	if c.start > c.end {
		return nil
	}

	now := o.conf.Now()
	if o.timer.due(now, o.conf.SendInterval) {
		o.logger.WithFields(logrus.Fields{
			"start": c.start,
			"end":   c.end,
		}).Debug("Requesting agreed tables")

		o.broadcast(&Message{
			Epoch:                    o.source.CurrentEpoch(),
			RequestAgreedMedianTable: true,
			StartEpoch:               c.start,
			EndEpoch:                 c.end,
		})
		o.timer.mark(now)
	}

	return nil
}

// computeRequestedAgreedTables is the S9 callback. Missing epochs are rebuilt
// in order from the answers of the peers, by majority among the peers that
// sent a table for the epoch.
//
// An epoch that a majority of the other oracles reported not to hold, and that
// nobody sent, was never agreed by the network. It is committed empty so that
// the cursor can move past it. Any other epoch without answers stops the
// catch-up.
func (o *Oracle) computeRequestedAgreedTables() error {
	c := o.catchUp
	defer o.resetCatchUp()

	others := o.oracles.Len()
	if o.oracles.Contains(o.address) {
		others--
	}

	for epoch := o.source.LastSyncedEpoch() + 1; epoch >= c.start && epoch <= c.end; epoch++ {
		logger := o.logger.WithField("epoch", epoch)

		var table consensus.AgreedTable

		byEpoch := c.answers[epoch]
		if len(byEpoch) == 0 {
			lacking := len(c.lacking[epoch])
			if others > 0 && !common.StrictMajority(lacking, others) {
				logger.WithField("lacking", lacking).Warn("No agreed table received")
				return nil
			}
			logger.Warn("Epoch unknown to the network, committing empty table")
			table = make(consensus.AgreedTable)
		} else {
			subs := make([]consensus.AgreedSubmission, 0, len(byEpoch))
			for _, sender := range sortedSenders(byEpoch) {
				subs = append(subs, consensus.AgreedSubmission{
					Oracle: sender,
					Table:  byEpoch[sender],
				})
			}

			agreed, err := consensus.AgreeAgreedTables(subs, len(subs))
			if err != nil {
				logger.WithError(err).Error("Agreeing on requested table")
				return err
			}
			table = agreed
		}

		err := o.source.CommitEpoch(epoch, table)
		switch {
		case err == nil:
			logger.WithField("nodes", len(table)).Info("Requested agreed table committed")
		case common.IsStore(err, common.TooLate):
			continue
		case common.IsStore(err, common.SkippedIndex):
			logger.Warn("Epoch gap, stopping catch-up")
			return nil
		default:
			return err
		}
	}

	return nil
}

func maxEpoch(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
