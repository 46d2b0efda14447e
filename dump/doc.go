/*
Package dump provides I/O operations for collected states of ledgers.

State collection (including raw storage) allows you to move a ledger between
storage backends, inspect it offline or compare two snapshots. A restored
ledger behaves exactly like the dumped one: balances, allowances, roles and
meta nonces are preserved, so signed intents stay valid or invalid exactly as
before.

The package works with dumps stored in the file system using human-readable
encoding.
*/
package dump
