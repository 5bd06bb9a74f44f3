package oracle

import (
	"errors"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/sirupsen/logrus"
)

// answerRequests is the S0 callback. Oracles waiting for the next epoch serve
// the committed AgreedTables requested by oracles that are catching up.
func (o *Oracle) answerRequests() error {
	for _, m := range o.receive() {
		answer, err := o.committedTables(m.StartEpoch, m.EndEpoch)
		if err != nil {
			return err
		}

		o.logger.WithFields(logrus.Fields{
			"sender": shortAddr(m.Sender()),
			"start":  m.StartEpoch,
			"end":    m.EndEpoch,
			"epochs": len(answer),
		}).Debug("Answering request")

		o.broadcast(&Message{
			Epoch:                  o.source.CurrentEpoch(),
			EpochAgreedMedianTable: answer,
		})
	}
	return nil
}

// committedTables returns the committed tables of the range, capped to
// MaxRequestEpochs. The result is never nil so that an oracle holding nothing
// still answers.
func (o *Oracle) committedTables(start, end uint64) ([]EpochTable, error) {
	if last := o.source.LastSyncedEpoch(); end > last {
		end = last
	}
	if max := uint64(o.conf.MaxRequestEpochs); max > 0 && end >= start && end-start+1 > max {
		end = start + max - 1
	}

	res := []EpochTable{}
	for e := start; e <= end; e++ {
		table, err := o.source.EpochTable(e)
		if err != nil {
			if common.IsStore(err, common.KeyNotFound) {
				continue
			}
			return nil, err
		}
		res = append(res, EpochTable{Epoch: e, Table: table})
	}
	return res, nil
}

// computeLocalTable is the S1 callback. Only a supervisor that was fully online
// during the previous epoch participates; it then expects every oracle it saw
// (potentially) fully online to participate as well.
func (o *Oracle) computeLocalTable() error {
	r := o.round

	supervisor := o.oracles.Contains(o.address)
	if !supervisor {
		o.logger.WithField("epoch", r.epoch).Debug("Not a supervisor")
		return nil
	}

	table := make(consensus.LocalTable)
	for _, node := range o.source.Nodes() {
		table[node] = o.source.PreviousEpochScore(node)
	}
	r.localTable = table

	self := o.source.PreviousEpochScore(o.address)
	if self != consensus.FullyOnline {
		o.logger.WithFields(logrus.Fields{
			"epoch": r.epoch,
			"score": self,
		}).Info("Not participating, own score not fully online")
		return nil
	}

	r.participating = true
	r.participation.Expect(o.address)
	for node, score := range table {
		if score >= consensus.PotentiallyFullyOnline && o.oracles.Contains(node) {
			r.participation.Expect(node)
		}
	}

	o.logger.WithFields(logrus.Fields{
		"epoch":        r.epoch,
		"nodes":        len(table),
		"participants": r.participation.Count(),
		"up_to_date":   o.upToDate(),
	}).Debug("Computed local table")

	return nil
}

// sendLocalTable is the S2 callback.
func (o *Oracle) sendLocalTable() error {
	r := o.round

	for _, m := range o.receive() {
		r.localTables[m.Sender()] = m.LocalTable
	}

	now := o.conf.Now()
	if o.timer.due(now, o.conf.SendInterval) {
		r.localTables[o.address] = r.localTable
		o.broadcast(&Message{
			Epoch:      r.epoch,
			LocalTable: r.localTable,
		})
		o.timer.mark(now)
	}

	return nil
}

// computeMedianTable is the S3 callback. Without a quorum of LocalTables no
// MedianTable is produced this round.
func (o *Oracle) computeMedianTable() error {
	r := o.round

	tables := make([]consensus.LocalTable, 0, len(r.localTables))
	for _, sender := range sortedSenders(r.localTables) {
		tables = append(tables, r.localTables[sender])
	}

	medians, err := consensus.MedianScores(tables, r.participation.Count())
	if err != nil {
		if errors.Is(err, consensus.ErrInsufficientQuorum) {
			o.logger.WithField("epoch", r.epoch).WithError(err).Warn("No median table")
			r.medianTable = nil
			return nil
		}
		return err
	}

	median := make(consensus.MedianTable, len(medians))
	for node, value := range medians {
		entry := &consensus.MedianEntry{
			Node:  node,
			Epoch: r.epoch,
			Value: value,
		}
		if err := o.signer.Sign(entry); err != nil {
			return err
		}
		median[node] = entry
	}
	r.medianTable = median

	o.logger.WithFields(logrus.Fields{
		"epoch":  r.epoch,
		"tables": len(tables),
		"nodes":  len(median),
	}).Debug("Computed median table")

	return nil
}

// sendMedianTable is the S4 callback.
func (o *Oracle) sendMedianTable() error {
	r := o.round

	for _, m := range o.receive() {
		r.medianTables[m.Sender()] = m.MedianTable
	}

	now := o.conf.Now()
	if o.timer.due(now, o.conf.SendInterval) {
		if r.medianTable != nil {
			r.medianTables[o.address] = r.medianTable
		}
		o.broadcast(&Message{
			Epoch:       r.epoch,
			MedianTable: r.medianTable,
		})
		o.timer.mark(now)
	}

	return nil
}

// computeAgreedMedianTable is the S5 callback. A node without a majority
// median is unrecoverable and stops the oracle.
func (o *Oracle) computeAgreedMedianTable() error {
	r := o.round

	subs := make([]consensus.MedianSubmission, 0, len(r.medianTables))
	for _, sender := range sortedSenders(r.medianTables) {
		subs = append(subs, consensus.MedianSubmission{
			Oracle: sender,
			Table:  r.medianTables[sender],
		})
	}

	agreed, err := consensus.AgreeMedianTables(subs, r.participation.Count())
	if err != nil {
		o.logger.WithField("epoch", r.epoch).WithError(err).Error("Agreeing on median table")
		return err
	}
	r.agreedTable = agreed

	o.logger.WithFields(logrus.Fields{
		"epoch":       r.epoch,
		"submissions": len(subs),
		"nodes":       len(agreed),
	}).Debug("Computed agreed median table")

	return nil
}

// sendAgreedMedianTable is the S6 callback. Received AgreedTables are only
// compared with ours.
func (o *Oracle) sendAgreedMedianTable() error {
	r := o.round

	for _, m := range o.receive() {
		r.agreedTables[m.Sender()] = m.AgreedMedianTable
		if !consensus.SameValues(m.AgreedMedianTable, r.agreedTable) {
			o.logger.WithFields(logrus.Fields{
				"epoch":  r.epoch,
				"sender": shortAddr(m.Sender()),
			}).Warn("Agreed median table differs from ours")
		}
	}

	now := o.conf.Now()
	if o.timer.due(now, o.conf.SendInterval) {
		o.broadcast(&Message{
			Epoch:             r.epoch,
			AgreedMedianTable: r.agreedTable,
		})
		o.timer.mark(now)
	}

	return nil
}

// updateEpochSource is the S7 callback. A table is only committed for the
// epoch right after the sync cursor; anything else is left to catch-up.
func (o *Oracle) updateEpochSource() error {
	p := o.pending
	o.pending = nil

	if p == nil || p.table == nil {
		return nil
	}

	logger := o.logger.WithField("epoch", p.epoch)

	if current := o.source.CurrentEpoch(); current != p.epoch+1 {
		logger.WithField("current", current).Warn("Epoch changed during round, not committing")
		return nil
	}

	err := o.source.CommitEpoch(p.epoch, p.table)
	switch {
	case err == nil:
		logger.WithField("nodes", len(p.table)).Info("Agreed table committed")
	case common.IsStore(err, common.TooLate):
		logger.Debug("Epoch already committed")
	case common.IsStore(err, common.SkippedIndex):
		logger.WithField("last_synced", o.source.LastSyncedEpoch()).Warn("Epoch gap, not committing")
	default:
		return err
	}

	return nil
}
