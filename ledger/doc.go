/*
Package ledger implements a fungible token ledger with meta transactions.

Holders move tokens directly (Transfer, Approve, TransferFrom, etc.) or sign
an intent that a relayer submits on their behalf (TransferWithProof,
ApproveWithProof, etc.). The relayer gets a fee from the signer's balance.
Every signed intent embeds the signer's meta nonce at the moment of
verification, so each signature is usable exactly once and only in order.

The owner manages mint agents, the transfer whitelist and the pause state.
While paused, only whitelisted holders can have their balance debited.

State lives in a neo-go storage.Store. Each entry point stages its changes in
a MemCachedStore and persists them only on success. Entry points return a
Receipt with the notifications produced.

# Notifications

Transfer notification. This is a NEP-17 standard notification. Null from is
used for minting, null to for burning.

	Transfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer

Approval notification. Amount is the resulting allowance.

	Approval:
	  - name: owner
	    type: Hash160
	  - name: spender
	    type: Hash160
	  - name: amount
	    type: Integer

Mint and Burn notifications accompany Transfer on supply changes.

	Mint:
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
	Burn:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer

OwnershipTransferred notification. Previous owner is null at genesis.

	OwnershipTransferred:
	  - name: previous
	    type: Hash160
	  - name: owner
	    type: Hash160

Role notifications.

	MintAgentChanged:
	  - name: agent
	    type: Hash160
	  - name: enabled
	    type: Boolean
	WhitelistChanged:
	  - name: holder
	    type: Hash160
	  - name: enabled
	    type: Boolean

Pause and Unpause notifications have no parameters.

MetaTransaction notification is produced after the relayed operation and the
fee transfer. Nonce is the consumed one.

	MetaTransaction:
	  - name: signer
	    type: Hash160
	  - name: relayer
	    type: Hash160
	  - name: kind
	    type: ByteArray
	  - name: nonce
	    type: Integer
	  - name: fee
	    type: Integer
*/
package ledger
