// Package papertrade provides the accounting core of a simulated
// cryptocurrency portfolio: virtual cash deposits, buy and sell trades at
// live market prices, and point-in-time performance reports.
//
// The core functionalities include:
//   - Ledger: the record of one portfolio's cash, holdings and immutable
//     trade history. Each mutation is all-or-nothing and keeps the ledger
//     invariants: available cash never negative, holdings strictly positive,
//     and the signed trade quantities of a symbol summing to its holding.
//   - Accounting System: a stateless engine that prices trades through an
//     injected PriceOracle, applies them to a Ledger, and derives valuation
//     reports with average-cost or FIFO cost basis.
//   - Data Persistence: encoding and decoding ledgers to and from a
//     human-readable JSONL format.
//
// Amounts and quantities are exact decimals. This package serves as the
// foundational logic for the service, server and `pts` command-line tool.
package papertrade
