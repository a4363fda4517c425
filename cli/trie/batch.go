package trie

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nspcc-dev/statetrie/cli/options"
	"github.com/nspcc-dev/statetrie/pkg/core/mpt"
	"github.com/nspcc-dev/statetrie/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

const (
	defaultChunkSize = 1000
	// maxLineSize is enough for the longest key and a sizeable value.
	maxLineSize = 64 * 1024 * 1024
)

// KVPair represents a single change, nil Value means deletion.
type KVPair struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// addTo decodes the pair and adds it to the batch.
func (p KVPair) addTo(b *mpt.Batch) error {
	key, err := decodeHex(p.Key)
	if err != nil {
		return fmt.Errorf("invalid key %q: %w", p.Key, err)
	}
	if p.Value == nil {
		b.Delete(key)
		return nil
	}
	val, err := decodeHex(*p.Value)
	if err != nil {
		return fmt.Errorf("invalid value for key %q: %w", p.Key, err)
	}
	b.Add(key, val)
	return nil
}

func applyBatch(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoFile, 1)
	}
	data, err := os.ReadFile(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var pairs []KVPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return cli.NewExitError(fmt.Errorf("invalid batch file: %w", err), 1)
	}
	var b mpt.Batch
	for _, p := range pairs {
		if err := p.addTo(&b); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	root, height, err := e.apply(b)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printVersion(ctx, root, height)
	return nil
}

func importChanges(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError(errNoFile, 1)
	}
	chunk := int(ctx.Uint("chunk"))
	if chunk == 0 {
		return cli.NewExitError("chunk size must be positive", 1)
	}
	f, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	e, err := newEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	prometheus := metrics.NewPrometheusService(e.cfg.ApplicationConfiguration.Prometheus, e.log)
	pprof := metrics.NewPprofService(e.cfg.ApplicationConfiguration.Pprof, e.log)
	prometheus.Start()
	pprof.Start()
	defer prometheus.ShutDown()
	defer pprof.ShutDown()

	grace, cancel := options.NewGraceContext(e.log)
	defer cancel()

	var (
		scanner = bufio.NewScanner(f)
		b       mpt.Batch
		line    int
		pending int
		total   int
	)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	flush := func() error {
		if pending == 0 {
			return nil
		}
		root, height, err := e.apply(b)
		if err != nil {
			return err
		}
		total += pending
		e.log.Info("chunk imported",
			zap.Uint32("height", height),
			zap.Stringer("root", root),
			zap.Int("changes", pending),
			zap.Int("keys", b.Len()),
			zap.Int("total", total))
		printVersion(ctx, root, height)
		b = mpt.Batch{}
		pending = 0
		return nil
	}
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var p KVPair
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			return cli.NewExitError(fmt.Errorf("line %d: %w", line, err), 1)
		}
		if err := p.addTo(&b); err != nil {
			return cli.NewExitError(fmt.Errorf("line %d: %w", line, err), 1)
		}
		pending++
		if pending >= chunk {
			if err := grace.Err(); err != nil {
				return cli.NewExitError(fmt.Errorf("import interrupted at line %d", line), 1)
			}
			if err := flush(); err != nil {
				return cli.NewExitError(err, 1)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to read input: %w", err), 1)
	}
	if err := flush(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
