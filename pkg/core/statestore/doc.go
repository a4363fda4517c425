/*
Package statestore implements trie node and value stores over a key-value
storage.Store.

Nodes are kept under storage.DataMPT prefix keyed by their digest, values
under storage.DataMPTValue keyed by their SHA-256 hash. All writes go
through an in-memory layer and reach the backend on Persist.
*/
package statestore
