/*
Package mpt implements the content-addressed Merkle-Patricia trie used to
store the node state.

Trie nodes reference each other by the sha256 digest of their canonical
encoding only, so a trie version is identified by its root digest and any
number of versions can share unchanged subtrees. Mutations never modify
stored nodes, they produce new nodes along the modified path and return a
new root digest, the previous root stays valid as long as its nodes are kept
in the store.

There are three node kinds: leaves, branches (with or without a value) and
extensions. Values are not stored inline, nodes keep a ValueRef (length and
hash of the value) and value bytes live in a separate content-addressed
ValueStore.
*/
package mpt
