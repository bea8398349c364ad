/*
Package trie implements the CLI commands working with state tries.
*/
package trie

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nspcc-dev/dot-go/cli/options"
	"github.com/nspcc-dev/dot-go/pkg/config"
	"github.com/nspcc-dev/dot-go/pkg/core/mpt"
	"github.com/nspcc-dev/dot-go/pkg/core/storage"
	"github.com/nspcc-dev/dot-go/pkg/core/triedb"
	"github.com/nspcc-dev/dot-go/pkg/crypto/hash"
	"github.com/nspcc-dev/dot-go/pkg/services/metrics"
	"github.com/nspcc-dev/dot-go/pkg/services/stateapi"
	"github.com/nspcc-dev/dot-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	rootFlag = cli.StringFlag{
		Name:  "root, r",
		Usage: "state root hash (hex, last committed one by default)",
	}
	stateVersionFlag = cli.UintFlag{
		Name:  "state-version",
		Usage: "state version used to hash the trie (0 or 1), configured one by default",
	}
)

// NewCommands returns 'trie' command.
func NewCommands() []cli.Command {
	storageFlags := append([]cli.Flag{options.Debug}, options.Config...)
	return []cli.Command{{
		Name:  "trie",
		Usage: "state trie operations",
		Subcommands: []cli.Command{
			{
				Name:      "ordered-root",
				Usage:     "calculate the root of a trie built from an ordered list of values",
				UsageText: "dot-go trie ordered-root [--keccak] [--state-version N] <hex value>...",
				Action:    orderedRoot,
				Flags: []cli.Flag{
					cli.BoolFlag{
						Name:  "keccak",
						Usage: "use keccak-256 instead of blake2b-256",
					},
					cli.UintFlag{
						Name:  "state-version",
						Usage: "state version used to hash the trie (0 or 1)",
					},
				},
			},
			{
				Name:      "put",
				Usage:     "store the value by the key and commit the state",
				UsageText: "dot-go trie put [--config-file file] [--root hash] [--state-version N] <hex key> <hex value>",
				Action:    put,
				Flags:     append([]cli.Flag{rootFlag, stateVersionFlag}, storageFlags...),
			},
			{
				Name:      "get",
				Usage:     "print the value stored by the key",
				UsageText: "dot-go trie get [--config-file file] [--root hash] <hex key>",
				Action:    get,
				Flags:     append([]cli.Flag{rootFlag}, storageFlags...),
			},
			{
				Name:      "keys",
				Usage:     "list keys with the given prefix",
				UsageText: "dot-go trie keys [--config-file file] [--root hash] [--prefix hex] [--count N] [--start hex]",
				Action:    keys,
				Flags: append([]cli.Flag{
					rootFlag,
					cli.StringFlag{
						Name:  "prefix",
						Usage: "hex key prefix",
					},
					cli.UintFlag{
						Name:  "count",
						Value: 100,
						Usage: "maximum number of keys to list",
					},
					cli.StringFlag{
						Name:  "start",
						Usage: "hex key to start after",
					},
				}, storageFlags...),
			},
			{
				Name:      "clear-prefix",
				Usage:     "remove all keys with the given prefix and commit the state",
				UsageText: "dot-go trie clear-prefix [--config-file file] [--root hash] [--state-version N] <hex prefix>",
				Action:    clearPrefix,
				Flags:     append([]cli.Flag{rootFlag, stateVersionFlag}, storageFlags...),
			},
			{
				Name:      "load",
				Usage:     "load key-value pairs from a YAML file and commit the state",
				UsageText: "dot-go trie load [--config-file file] [--root hash] [--state-version N] --in file.yml",
				Action:    load,
				Flags: append([]cli.Flag{
					rootFlag,
					stateVersionFlag,
					cli.StringFlag{
						Name:  "in, i",
						Usage: "YAML file with a hex key to hex value mapping",
					},
				}, storageFlags...),
			},
		},
	}}
}

func orderedRoot(ctx *cli.Context) error {
	h := hash.Blake2b256
	if ctx.Bool("keccak") {
		h = hash.Keccak256
	}
	v, err := stateVersion(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	values := make([][]byte, ctx.NArg())
	for i, arg := range ctx.Args() {
		values[i], err = decodeHex(arg)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("value #%d: %w", i, err), 1)
		}
	}
	root, err := mpt.OrderedRoot(values, mpt.NewCodec(h, v))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func put(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("key and value are expected", 1)
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("key: %w", err), 1)
	}
	value, err := decodeHex(ctx.Args().Get(1))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("value: %w", err), 1)
	}
	return modify(ctx, func(b *triedb.PersistentBatch) error {
		return b.Put(key, value)
	})
}

func clearPrefix(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("prefix is expected", 1)
	}
	prefix, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("prefix: %w", err), 1)
	}
	return modify(ctx, func(b *triedb.PersistentBatch) error {
		return b.ClearPrefix(prefix)
	})
}

func load(ctx *cli.Context) error {
	in := ctx.String("in")
	if in == "" {
		return cli.NewExitError("input file is required", 1)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var kvs map[string]string
	if err := yaml.Unmarshal(data, &kvs); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to parse %s: %w", in, err), 1)
	}
	// Sorted to make the log of loaded keys reproducible.
	hexKeys := make([]string, 0, len(kvs))
	for k := range kvs {
		hexKeys = append(hexKeys, k)
	}
	sort.Strings(hexKeys)

	return modifyWithServices(ctx, func(b *triedb.PersistentBatch, log *zap.Logger) error {
		for _, hk := range hexKeys {
			key, err := decodeHex(hk)
			if err != nil {
				return fmt.Errorf("key %q: %w", hk, err)
			}
			value, err := decodeHex(kvs[hk])
			if err != nil {
				return fmt.Errorf("value of %q: %w", hk, err)
			}
			if err := b.Put(key, value); err != nil {
				return err
			}
		}
		log.Info("pairs loaded", zap.Int("count", len(hexKeys)))
		return nil
	})
}

func get(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("key is expected", 1)
	}
	key, err := decodeHex(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("key: %w", err), 1)
	}
	return query(ctx, func(s *stateapi.Service, root util.Uint256) error {
		v, err := s.GetStorage(root, key)
		if err != nil {
			return err
		}
		if v == nil {
			return errors.New("key not found")
		}
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(v))
		return nil
	})
}

func keys(ctx *cli.Context) error {
	prefix, err := decodeHex(ctx.String("prefix"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("prefix: %w", err), 1)
	}
	var start []byte
	if s := ctx.String("start"); s != "" {
		start, err = decodeHex(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("start: %w", err), 1)
		}
	}
	count := ctx.Uint("count")
	return query(ctx, func(s *stateapi.Service, root util.Uint256) error {
		ks, err := s.GetKeysPaged(root, prefix, uint32(count), start)
		if err != nil {
			return err
		}
		for _, k := range ks {
			fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(k))
		}
		return nil
	})
}

// env is the opened storage with everything needed to work with it.
type env struct {
	cfg   config.ApplicationConfiguration
	log   *zap.Logger
	store storage.Store
	ts    *triedb.TrieStorage
}

func openEnv(ctx *cli.Context) (*env, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("could not open storage: %w", err)
	}
	ts, err := triedb.New(store, cfg.ApplicationConfiguration.Trie, log)
	if err != nil {
		_ = store.Close()
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg.ApplicationConfiguration, log: log, store: store, ts: ts}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Error("failed to close storage", zap.Error(err))
	}
	_ = e.log.Sync()
}

func (e *env) root(ctx *cli.Context) (util.Uint256, error) {
	s := ctx.String("root")
	if s == "" {
		return e.ts.LastRoot(), nil
	}
	return util.Uint256DecodeStringBE(s)
}

func query(ctx *cli.Context, f func(*stateapi.Service, util.Uint256) error) error {
	e, err := openEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	root, err := e.root(ctx)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("bad root: %w", err), 1)
	}
	if err := f(stateapi.New(e.ts, e.log), root); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func modify(ctx *cli.Context, f func(*triedb.PersistentBatch) error) error {
	return modifyEnv(ctx, false, func(b *triedb.PersistentBatch, _ *zap.Logger) error {
		return f(b)
	})
}

// modifyWithServices is like modify, but keeps the configured metrics
// services running while f works.
func modifyWithServices(ctx *cli.Context, f func(*triedb.PersistentBatch, *zap.Logger) error) error {
	return modifyEnv(ctx, true, f)
}

func modifyEnv(ctx *cli.Context, withServices bool, f func(*triedb.PersistentBatch, *zap.Logger) error) error {
	e, err := openEnv(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.close()

	v := mpt.Version(e.cfg.Trie.StateVersion)
	if ctx.IsSet("state-version") {
		v, err = stateVersion(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	if withServices {
		services := []*metrics.Service{
			metrics.NewPrometheusService(e.cfg.Prometheus, e.log),
			metrics.NewPprofService(e.cfg.Pprof, e.log),
		}
		for _, s := range services {
			if err := s.Start(); err != nil {
				return cli.NewExitError(err, 1)
			}
			defer s.ShutDown()
		}
	}

	root, err := e.root(ctx)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("bad root: %w", err), 1)
	}
	b, err := e.ts.GetPersistentBatchAt(root)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := f(b, e.log); err != nil {
		return cli.NewExitError(err, 1)
	}
	newRoot, err := b.Commit(v)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, newRoot.StringBE())
	return nil
}

func stateVersion(ctx *cli.Context) (mpt.Version, error) {
	v := ctx.Uint("state-version")
	if v > uint(mpt.V1) {
		return 0, fmt.Errorf("unsupported state version %d", v)
	}
	return mpt.Version(v), nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
