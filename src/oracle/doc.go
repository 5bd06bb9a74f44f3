// Package oracle implements the availability synchronization protocol run by
// oracles.
//
// Every epoch, oracles exchange three rounds of signed broadcasts:
//
//	S2  LocalTable   each oracle's own view of node availability
//	S4  MedianTable  the signed per-node median of the received LocalTables
//	S6  AgreedTable  the per-node majority median, with the signed medians
//	                 carrying it as proof
//
// and commit the AgreedTable to the Epoch Source in S7. Oracles that are not
// eligible for a round, or that are behind, pull the AgreedTables they missed
// from their peers instead (S8 and S9). Oracles in S0 answer those requests.
//
// The whole life-cycle is one fsm.StateMachine. The host calls Step once per
// tick; messages are pulled from the Transport in batch at the top of the
// states that receive them, and every message is checked by the validator
// registered for the receiving state before it is used.
//
//	S0 -> S1 -> S2 -> S3 -> S4 -> S5 -> S6 -> S7 -> S0
//	      S1 -> S8 -> S9 -> S0
//	            S8 -> S0
//
// Only committing an AgreedTable has a durable effect. Everything else is
// rebuilt when a new epoch starts.
package oracle
