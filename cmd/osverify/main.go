package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/originstamp-tools/verify-go/pkg/config"
	"github.com/originstamp-tools/verify-go/pkg/extraction"
	"github.com/originstamp-tools/verify-go/pkg/ledger"
	"github.com/originstamp-tools/verify-go/pkg/logger"
	"github.com/originstamp-tools/verify-go/pkg/persistence"
	badgerstore "github.com/originstamp-tools/verify-go/pkg/persistence/badger"
	memorystore "github.com/originstamp-tools/verify-go/pkg/persistence/memory"
	redisstore "github.com/originstamp-tools/verify-go/pkg/persistence/redis"
	"github.com/originstamp-tools/verify-go/pkg/prooftree"
	"github.com/originstamp-tools/verify-go/pkg/verifier"
)

func main() {
	defaults := config.FromEnvironment()

	app := &cli.App{
		Name:      "osverify",
		Usage:     "Verify OriginStamp blockchain timestamp proofs",
		ArgsUsage: "<proof.pdf>",
		Description: `Verifies a timestamp proof PDF against the Bitcoin blockchain.

The tool extracts the merkle proof tree, the timestamped document hash and
the anchoring transaction id from the PDF, fetches the transaction's
OP_RETURN commitment from an esplora-compatible API, and then checks:
- the document hash is present in the proof tree
- every internal tree node derives from its children
- the tree root equals the on-chain commitment`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Esplora-compatible blockchain API root",
				Value: defaults.APIURL,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for blockchain API requests",
				Value: defaults.RequestTimeout,
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Commitment cache backend: none, memory, badger or redis",
				Value: defaults.CacheBackend.String(),
			},
			&cli.StringFlag{
				Name:  "cache-path",
				Usage: "Data directory for the badger cache",
				Value: defaults.CachePath,
			},
			&cli.StringFlag{
				Name:  "redis-address",
				Usage: "Redis server address for the redis cache (host:port)",
				Value: defaults.RedisAddress,
			},
			&cli.StringFlag{
				Name:  "redis-password",
				Usage: "Redis password for the redis cache",
				Value: defaults.RedisPassword,
			},
			&cli.BoolFlag{
				Name:  "leaves-only",
				Usage: "Require the document hash to match a leaf node, not any node",
				Value: defaults.LeavesOnly,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: defaults.Debug,
			},
		},
		Action: verifyAction,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildConfig assembles the run configuration from environment defaults and
// CLI flag overrides.
func buildConfig(c *cli.Context) *config.Config {
	cfg := config.FromEnvironment()
	cfg.APIURL = c.String("api-url")
	cfg.RequestTimeout = c.Duration("timeout")
	cfg.CacheBackend = config.CacheBackend(c.String("cache"))
	cfg.CachePath = c.String("cache-path")
	cfg.RedisAddress = c.String("redis-address")
	cfg.RedisPassword = c.String("redis-password")
	cfg.LeavesOnly = c.Bool("leaves-only")
	cfg.Debug = c.Bool("debug")
	return cfg
}

// verifyAction runs the full verification pipeline for one proof PDF.
//
// Exit contract: handled verification failures are reported to the user and
// exit 0; only unreadable input and configuration errors exit non-zero.
func verifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: osverify [options] <proof.pdf>", 1)
	}
	file := c.Args().First()

	cfg := buildConfig(c)
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	zapLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return cli.Exit(fmt.Sprintf("creating logger: %v", err), 1)
	}
	defer func() { _ = zapLogger.Sync() }()
	runLogger := zapLogger.With(zap.String("run_id", uuid.New().String()))

	text, err := extraction.ExtractText(file)
	if err != nil {
		var unreadable *extraction.SourceUnreadableError
		if errors.As(err, &unreadable) {
			return cli.Exit(fmt.Sprintf("osverify: %v", unreadable), 1)
		}
		return cli.Exit(fmt.Sprintf("osverify: %s: %v", file, err), 1)
	}

	fields, err := extraction.ExtractFields(text)
	if err != nil {
		printFail()
		fmt.Printf("The file does not look like a timestamp proof certificate: %v\n", err)
		return nil
	}

	fmt.Printf("extracted from pdf:\ndocument hash %s\nbitcoin transaction %s\n\n", fields.DocumentHash, fields.Transaction)

	client, cleanup, err := buildLedgerClient(cfg, runLogger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("setting up ledger client: %v", err), 1)
	}
	defer cleanup()

	fmt.Print("Checking existence of bitcoin blockchain transaction:")
	ctx, cancel := context.WithTimeout(c.Context, cfg.RequestTimeout)
	defer cancel()
	commitment, err := client.Lookup(ctx, fields.Transaction)
	if err != nil {
		printFail()
		switch {
		case errors.Is(err, ledger.ErrReferenceNotFound):
			fmt.Println("Transaction not found on the blockchain.")
		default:
			fmt.Printf("Blockchain lookup failed: %v\n", err)
		}
		return nil
	}
	printOK()

	tree, err := prooftree.Parse(fields.ProofXML)
	if err != nil {
		printFail()
		fmt.Printf("%v\n", err)
		return nil
	}

	v := verifier.New(verifier.Options{
		LeavesOnly: cfg.LeavesOnly,
		Reporter:   consoleReporter{},
		Logger:     runLogger,
	})

	outcome := v.Verify(tree, fields.DocumentHash, commitment)
	if !outcome.Verified {
		fmt.Printf("\nVerification failed: %s\n", outcome.Message())
		if outcome.Detail != "" {
			fmt.Printf("Detail: %s\n", outcome.Detail)
		}
		return nil
	}

	fmt.Printf("\n\nDocument hash %s has been successfully embedded in the bitcoin blockchain\n", fields.DocumentHash)
	fmt.Printf("Number of confirmations: %d\nBlockchain timestamp: %s (%s)\n",
		commitment.Confirmations,
		commitment.CommittedAt.Format(time.RFC3339),
		humanize.Time(commitment.CommittedAt),
	)
	return nil
}

// buildLedgerClient creates the lookup client, optionally wrapped with the
// configured commitment cache. The returned cleanup closes the cache store.
func buildLedgerClient(cfg *config.Config, zapLogger *zap.Logger) (ledger.Client, func(), error) {
	esplora, err := ledger.NewEsploraClient(&ledger.EsploraConfig{
		BaseURL: cfg.APIURL,
		Logger:  zapLogger,
	})
	if err != nil {
		return nil, nil, err
	}

	var store persistence.Store
	switch cfg.CacheBackend {
	case config.CacheNone:
		return esplora, func() {}, nil
	case config.CacheMemory:
		store = memorystore.NewMemoryStore()
	case config.CacheBadger:
		store, err = badgerstore.NewBadgerStore(cfg.CachePath, zapLogger)
		if err != nil {
			return nil, nil, err
		}
	case config.CacheRedis:
		store, err = redisstore.NewRedisStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
		}, zapLogger)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}

	cached, err := ledger.NewCachedClient(&ledger.CachedClientConfig{
		Client: esplora,
		Store:  store,
		Logger: zapLogger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return cached, func() { _ = store.Close() }, nil
}

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

func printOK() {
	_, _ = green.Println(" success ✓")
}

func printFail() {
	_, _ = red.Println(" failure ✗")
}

// consoleReporter prints each verification step with a colored verdict, in
// protocol order.
type consoleReporter struct{}

var stepLabels = map[verifier.Step]string{
	verifier.StepMembership: "Check if document hash is in the merkle tree:",
	verifier.StepIntegrity:  "Check merkle tree integrity:",
	verifier.StepCommitment: "Check if merkle root is identical to the value stored in the blockchain:",
}

func (consoleReporter) StepResult(step verifier.Step, ok bool) {
	label, known := stepLabels[step]
	if !known {
		label = string(step) + ":"
	}
	fmt.Print(label)
	if ok {
		printOK()
	} else {
		printFail()
	}
}
