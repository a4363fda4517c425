package trie

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nspcc-dev/statetrie/pkg/core/mpt"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/urfave/cli"
)

// NodeEntry is a single record of the node dump.
type NodeEntry struct {
	Path string       `json:"path"`
	Hash util.Uint256 `json:"hash"`
	Node mpt.Node     `json:"node"`
}

// ProofResult is the output of the proof command.
type ProofResult struct {
	Root     util.Uint256 `json:"root"`
	Key      string       `json:"key"`
	Proof    []string     `json:"proof"`
	Verified bool         `json:"verified"`
	Length   uint32       `json:"length"`
	Hash     util.Uint256 `json:"hash"`
}

// valueRefOf returns the value reference stored in the node.
func valueRefOf(n mpt.Node) (mpt.ValueRef, bool) {
	switch n := n.(type) {
	case *mpt.LeafNode:
		return n.Value(), true
	case *mpt.BranchNode:
		return n.Value()
	default:
		return mpt.ValueRef{}, false
	}
}

func nibblesToHex(path []byte) string {
	var sb strings.Builder
	for _, n := range path {
		sb.WriteString(fmt.Sprintf("%x", n))
	}
	return sb.String()
}

func dumpTrie(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	root, err := e.selectRoot(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var w io.Writer = ctx.App.Writer
	if out := ctx.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("error creating file: %w", err), 1)
		}
		defer f.Close()
		w = f
	}
	encoder := json.NewEncoder(w)
	dumpNodes := ctx.Bool("nodes")

	var encErr error
	err = e.trie.Traverse(root, func(path []byte, h util.Uint256, n mpt.Node) bool {
		if dumpNodes {
			encErr = encoder.Encode(NodeEntry{Path: nibblesToHex(path), Hash: h, Node: n})
			return encErr != nil
		}
		key, ok := mpt.KeyOf(path, n)
		if !ok {
			return false
		}
		ref, _ := valueRefOf(n)
		val, err := e.store.Values().GetValue(ref.Hash, ref.Length)
		if err != nil {
			encErr = fmt.Errorf("key %x: %w", key, err)
			return true
		}
		v := hex.EncodeToString(val)
		encErr = encoder.Encode(KVPair{Key: hex.EncodeToString(key), Value: &v})
		return encErr != nil
	})
	if err == nil {
		err = encErr
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func getProof(ctx *cli.Context) error {
	key, err := keyArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	root, err := e.selectRoot(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	proof, err := e.trie.GetProof(root, key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	res := ProofResult{
		Root:  root,
		Key:   hex.EncodeToString(key),
		Proof: make([]string, len(proof)),
	}
	for i := range proof {
		res.Proof[i] = hex.EncodeToString(proof[i])
	}
	ref, ok := mpt.VerifyProof(root, key, proof)
	res.Verified, res.Length, res.Hash = ok, ref.Length, ref.Hash

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}
