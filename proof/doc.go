/*
Package proof provides signature primitives for meta-authorized ledger
operations.

A holder authorizes an operation by signing the digest of an intent message.
The ledger recovers the signer's address from the (v, r, s) signature and
compares it with the address claimed by the relayer, so the recovery scheme
defines both the digest convention and the address space.

Two schemes are available:

  - Neo: SHA-256 digests, secp256k1 keys, addresses are script hashes of
    the standard verification script (same as Neo accounts);
  - Ethereum: Keccak-256 digests with the Ethereum personal message prefix,
    addresses are Ethereum addresses.

Both schemes hash the message first and then sign the prefixed 32-byte
message hash, so the prefix always encodes the same length.
*/
package proof
