// Command crawler seeds from a list of known addresses and crawls the
// rest of a Zcash-family network's gossiped peer graph, periodically
// logging and persisting a topology summary.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"

	"github.com/zecharness/ziggurat-go/crawler"
)

const defaultLogFile = "crawler.log"
const defaultSummaryFile = "crawler-summary.txt"

// options is the crawler's command-line surface: a required, repeatable
// seed-address flag and an optional crawl interval in seconds.
type options struct {
	SeedAddrs     []string `short:"s" long:"seed-addrs" description:"host:port of a node to seed the crawl from (repeatable)" required:"true"`
	CrawlInterval uint     `short:"c" long:"crawl-interval" description:"seconds between main-loop sweeps" default:"60"`
}

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 normal, 2 bad args, 1 fatal
// error, matching spec.md's CLI contract.
func run() int {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	seeds, err := parseSeedAddrs(opts.SeedAddrs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := initLogRotator(defaultLogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logRotator.Close()
	useLoggers(btclog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	writer := crawler.NewFileSummaryWriter(defaultSummaryFile)
	c, err := crawler.New(ctx, writer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer c.Node().ShutDown()

	if err := c.Seed(ctx, seeds); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := c.Run(ctx, secondsToDuration(opts.CrawlInterval)); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

func secondsToDuration(s uint) time.Duration {
	if s == 0 {
		return crawler.MainLoopInterval
	}
	return time.Duration(s) * time.Second
}

func parseSeedAddrs(raw []string) ([]net.Addr, error) {
	seeds := make([]net.Addr, 0, len(raw))
	for _, s := range raw {
		addr, err := net.ResolveTCPAddr("tcp", s)
		if err != nil {
			return nil, fmt.Errorf("crawler: invalid seed address %q: %w", s, err)
		}
		seeds = append(seeds, addr)
	}
	return seeds, nil
}
