// Command kala-devnode runs a single-node instance of the eternal-VDF
// chain core: it bootstraps (or loads) genesis and repeatedly drives the
// tick processor until a configured tick count or a stop signal, standing
// in for the RPC/P2P layer that is out of scope for this repository.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/enigmarikki/kala-sub000/devnode"
	"github.com/enigmarikki/kala-sub000/tick"
	"github.com/enigmarikki/kala-sub000/timelock"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "kala-devnode: ", log.LstdFlags)

	defaults := devnode.DefaultConfig()
	cfg := defaults
	fs := flag.NewFlagSet("kala-devnode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.Network, "network", defaults.Network, "network name (devnet/testnet)")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "node data directory")
	fs.StringVar(&cfg.ChainIDHex, "chain-id", defaults.ChainIDHex, "32-byte hex chain identifier")
	fs.Uint64Var(&cfg.TickSize, "tick-size", defaults.TickSize, "iterations per tick, must be a multiple of 3")
	fs.IntVar(&cfg.DiscriminantBits, "discriminant-bits", defaults.DiscriminantBits, "class-group discriminant bit length")
	fs.IntVar(&cfg.CVDFArity, "cvdf-arity", defaults.CVDFArity, "cvdf aggregation arity")
	fs.Uint64Var(&cfg.CVDFLeafDifficulty, "cvdf-leaf-difficulty", defaults.CVDFLeafDifficulty, "squarings per cvdf leaf")
	fs.IntVar(&cfg.WorkerPoolSize, "workers", defaults.WorkerPoolSize, "decryption worker pool size")
	ticks := fs.Int("ticks", 0, "run N ticks then exit; 0 runs until signaled")
	dryRun := fs.Bool("dry-run", false, "validate config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := devnode.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if *dryRun {
		fmt.Fprintf(stdout, "config ok: network=%s datadir=%s tick_size=%d\n", cfg.Network, cfg.DataDir, cfg.TickSize)
		return 0
	}

	g, db, err := devnode.InitGenesis(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "genesis init failed: %v\n", err)
		return 2
	}
	defer db.Close()
	if g.Resumed {
		fmt.Fprintf(stdout, "kala-devnode resumed at tick=%d iteration=%d\n", g.ChainState.CurrentTick, g.Engine.Iteration())
	}

	solver := timelock.NewCPUBatchSolver(cfg.WorkerPoolSize)
	processor := tick.NewProcessor(g.Engine, g.ChainState, db, solver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "kala-devnode running: tick_size=%d discriminant_bits=%d\n", cfg.TickSize, cfg.DiscriminantBits)

	ranTicks := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdout, "kala-devnode stopped")
			return 0
		default:
		}
		if *ticks > 0 && ranTicks >= *ticks {
			fmt.Fprintf(stdout, "kala-devnode completed %d ticks\n", ranTicks)
			return 0
		}

		cert, err := processor.RunTick(func(offset uint64) []*tick.PendingTx { return nil })
		if err != nil {
			logger.Printf("tick %d finalize error: %v", cert.TickNumber, err)
			return 1
		}
		logger.Printf("tick=%d type=%s iteration=%d tx_count=%d hash=%x",
			cert.TickNumber, cert.TickType, cert.VDFIteration, cert.TransactionCount, cert.TickHash)
		ranTicks++
	}
}
