/*
Package mpt implements the radix-16 Merkle-Patricia trie used for Polkadot
(Substrate) state. Unlike the Ethereum-style trie there are no extension
nodes: both leaves and branches carry a partial key (a nibble suffix of the
full key), and a branch can hold a value of its own.

Nodes reachable from any root are never modified. Every mutation clones the
nodes along the edited path and returns a new root, so old roots (snapshots)
stay valid and can be read concurrently without locks. Children that are not
loaded into memory are represented by HashNode and resolved on demand via
ChildResolver.

Node encoding follows the Substrate node codec (see Codec), root hashes are
compatible with the ones produced by Substrate-based chains for both state
versions.
*/
package mpt
