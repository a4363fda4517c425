/*
Package trie implements CLI commands working with the state trie.
*/
package trie

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/statetrie/cli/options"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/mpt"
	"github.com/nspcc-dev/statetrie/pkg/core/statestore"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	errNoKey   = errors.New("no key specified")
	errNoValue = errors.New("no value specified")
	errNoFile  = errors.New("no input file specified")
)

// versionFlags select the trie version to read from, the latest one is used
// by default.
var versionFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "root, r",
		Usage: "trie root hash to use",
	},
	cli.UintFlag{
		Name:  "height",
		Usage: "use the trie version with the given height from the root history",
	},
}

func withCommon(flags ...cli.Flag) []cli.Flag {
	res := make([]cli.Flag, 0, len(options.Common)+len(flags))
	res = append(res, options.Common...)
	return append(res, flags...)
}

// NewCommands returns trie commands.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      "get",
			Usage:     "Get the value stored for the key",
			UsageText: "statetrie get [--root <hash> | --height <n>] [--config-file <file>] <key>",
			Action:    getValue,
			Flags:     withCommon(versionFlags...),
		},
		{
			Name:      "put",
			Usage:     "Put the key-value pair into the latest trie version",
			UsageText: "statetrie put [--config-file <file>] <key> <value>",
			Action:    putValue,
			Flags:     withCommon(),
		},
		{
			Name:      "delete",
			Usage:     "Delete the key from the latest trie version",
			UsageText: "statetrie delete [--config-file <file>] <key>",
			Action:    deleteValue,
			Flags:     withCommon(),
		},
		{
			Name:  "batch",
			Usage: "Apply a set of changes to the latest trie version at once",
			UsageText: "statetrie batch [--config-file <file>] <file>\n\n" +
				"   <file> is a JSON array of {\"key\": \"<hex>\", \"value\": \"<hex>\"} objects,\n" +
				"   null value deletes the key.",
			Action: applyBatch,
			Flags:  withCommon(),
		},
		{
			Name:  "import",
			Usage: "Import changes from the JSON-lines file in chunks",
			UsageText: "statetrie import [--chunk <n>] [--config-file <file>] <file>\n\n" +
				"   Every line of <file> is a {\"key\": \"<hex>\", \"value\": \"<hex>\"} object,\n" +
				"   every chunk creates a new trie version.",
			Action: importChanges,
			Flags: withCommon(cli.UintFlag{
				Name:  "chunk",
				Value: defaultChunkSize,
				Usage: "number of input lines (changes) applied in a single trie version",
			}),
		},
		{
			Name:      "dump",
			Usage:     "Dump trie contents as JSON",
			UsageText: "statetrie dump [--root <hash> | --height <n>] [--nodes] [--out <file>] [--config-file <file>]",
			Action:    dumpTrie,
			Flags: append(withCommon(versionFlags...),
				cli.BoolFlag{
					Name:  "nodes",
					Usage: "dump trie nodes instead of key-value pairs",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file (stdout if not given)",
				},
			),
		},
		{
			Name:      "proof",
			Usage:     "Build and verify the proof for the key",
			UsageText: "statetrie proof [--root <hash> | --height <n>] [--config-file <file>] <key>",
			Action:    getProof,
			Flags:     withCommon(versionFlags...),
		},
		{
			Name:      "roots",
			Usage:     "List root history",
			UsageText: "statetrie roots [--config-file <file>]",
			Action:    listRoots,
			Flags:     withCommon(),
		},
	}
}

// env is a set of components every command works with.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store *statestore.Store
	trie  *mpt.Trie
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, fmt.Errorf("could not initialize storage: %w", err)
	}
	store, err := statestore.New(backend, cfg.ApplicationConfiguration.Trie, log)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &env{
		cfg:   cfg,
		log:   log,
		store: store,
		trie: mpt.NewTrie(mpt.Config{
			Nodes:  store.Nodes(),
			Values: store.Values(),
			Log:    log,
		}),
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Error("failed to close the database", zap.Error(err))
	}
	_ = e.log.Sync()
}

// selectRoot returns the root of the trie version chosen with versionFlags.
func (e *env) selectRoot(ctx *cli.Context) (util.Uint256, error) {
	if s := ctx.String("root"); s != "" {
		root, err := util.Uint256DecodeString(s)
		if err != nil {
			return root, fmt.Errorf("invalid root: %w", err)
		}
		return root, nil
	}
	if ctx.IsSet("height") {
		return e.store.RootAt(uint32(ctx.Uint("height")))
	}
	root, _, err := e.store.CurrentRoot()
	return root, err
}

// apply applies the batch to the latest trie version and persists the
// result as the next one.
func (e *env) apply(b mpt.Batch) (util.Uint256, uint32, error) {
	root, height, err := e.store.CurrentRoot()
	if err != nil {
		return root, height, err
	}
	newRoot, nodes, err := e.trie.PutBatch(root, b)
	if err != nil {
		return root, height, err
	}
	if err := e.trie.Commit(nodes); err != nil {
		return root, height, err
	}
	height++
	e.store.PutRootAt(height, newRoot)
	e.store.PutCurrentRoot(newRoot, height)
	if _, err := e.store.Persist(); err != nil {
		return root, height - 1, err
	}
	e.log.Debug("new trie version",
		zap.Uint32("height", height),
		zap.Stringer("root", newRoot),
		zap.Int("nodes", len(nodes)))
	return newRoot, height, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func keyArg(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() < 1 {
		return nil, errNoKey
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return key, nil
}

func printVersion(ctx *cli.Context, root util.Uint256, height uint32) {
	fmt.Fprintf(ctx.App.Writer, "%d 0x%s\n", height, root)
}

func getValue(ctx *cli.Context) error {
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
	val, err := e.trie.Get(root, key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(val))
	return nil
}

func putValue(ctx *cli.Context) error {
	key, err := keyArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.NArg() < 2 {
		return cli.NewExitError(errNoValue, 1)
	}
	val, err := decodeHex(ctx.Args().Get(1))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid value: %w", err), 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	var b mpt.Batch
	b.Add(key, val)
	root, height, err := e.apply(b)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printVersion(ctx, root, height)
	return nil
}

func deleteValue(ctx *cli.Context) error {
	key, err := keyArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	var b mpt.Batch
	b.Delete(key)
	root, height, err := e.apply(b)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printVersion(ctx, root, height)
	return nil
}

func listRoots(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	e.store.Roots(func(height uint32, root util.Uint256) bool {
		printVersion(ctx, root, height)
		return true
	})
	return nil
}
