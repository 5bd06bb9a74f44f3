// Package config defines the configuration of an oracle.
//
// Whether the oracle is started from Go code or from the command line, it uses
// the Config object defined in this package. On top of these options, the
// oracle relies on a data directory, defined by Config.DataDir, where it
// expects to find a few additional files:
//
//  priv_key   // a plain text file containing the raw private key (cf. oraclesync keygen).
//  peers.json // a JSON file listing the designated oracles.
//  badger_db  // (optional, with --store) the database of agreed tables.
package config
