// Command searchctl is an operator CLI for a running searchd instance.
// It talks to the admin RPC port, not the public HTTP API, so it works
// even when the HTTP side is rate limited or behind a proxy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/querylab/vectorrank/pkg/proto"
	"github.com/querylab/vectorrank/pkg/rpc"
)

const defaultAddr = "localhost:7070"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch os.Args[1] {
	case "health":
		return runHealth(os.Args[2:])
	case "stats":
		return runStats(os.Args[2:])
	case "search":
		return runSearch(os.Args[2:])
	case "rebuild":
		return runRebuild(os.Args[2:])
	case "term":
		return runTerm(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: searchctl <subcommand> [flags]

Subcommands:
  health    Report whether the server has a model to serve
  stats     Print serving-model statistics
  search    Run a query and print the ranked results
  rebuild   Rebuild the model from the configured corpus source
  term      Print corpus statistics for one vocabulary term

Run 'searchctl <subcommand> --help' for subcommand flags.
`)
}

// dialFlags returns a flag set pre-populated with the flags every
// subcommand shares.
func dialFlags(name string) (*flag.FlagSet, *string, *time.Duration) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	addr := fs.String("addr", defaultAddr, "admin RPC address of searchd")
	timeout := fs.Duration("timeout", 10*time.Second, "per-call timeout")
	return fs, addr, timeout
}

func call(addr string, timeout time.Duration, method string, params, result any) error {
	client, err := rpc.Dial(addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Call(ctx, method, params, result)
}

func runHealth(args []string) error {
	fs, addr, timeout := dialFlags("health")
	fs.Parse(args)

	var resp proto.HealthCheckResponse
	if err := call(*addr, *timeout, "Model.Health", struct{}{}, &resp); err != nil {
		return err
	}
	fmt.Println(resp.Status)
	if resp.Status != "SERVING" {
		os.Exit(1)
	}
	return nil
}

func runStats(args []string) error {
	fs, addr, timeout := dialFlags("stats")
	asJSON := fs.Bool("json", false, "print the raw JSON response")
	fs.Parse(args)

	var resp proto.StatsResponse
	if err := call(*addr, *timeout, "Model.Stats", proto.StatsRequest{}, &resp); err != nil {
		return err
	}
	if *asJSON {
		return printJSON(resp)
	}

	fmt.Printf("ready:       %v\n", resp.Ready)
	fmt.Printf("source:      %s\n", resp.Source)
	fmt.Printf("documents:   %d\n", resp.Documents)
	fmt.Printf("vocabulary:  %d terms\n", resp.VocabularyTerms)
	fmt.Printf("weighting:   tf=%s idf=%s\n", resp.TFScheme, resp.IDFScheme)
	fmt.Printf("builds:      %d\n", resp.Builds)
	if resp.LastBuildAt != 0 {
		fmt.Printf("last build:  %s (%dms)\n",
			time.Unix(resp.LastBuildAt, 0).UTC().Format(time.RFC3339), resp.LastBuildMs)
	}
	return nil
}

func runSearch(args []string) error {
	fs, addr, timeout := dialFlags("search")
	limit := fs.Int("limit", 10, "maximum results to return")
	asJSON := fs.Bool("json", false, "print the raw JSON response")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: searchctl search [flags] <query>")
	}
	query := fs.Arg(0)

	var resp proto.SearchResponse
	req := proto.SearchRequest{Query: query, Limit: int32(*limit)}
	if err := call(*addr, *timeout, "Model.Search", req, &resp); err != nil {
		return err
	}
	if *asJSON {
		return printJSON(resp)
	}

	fmt.Printf("%d matching documents (%dms)\n", resp.TotalHits, resp.LatencyMs)
	for i, r := range resp.Results {
		fmt.Printf("%3d. %-8.6f %s", i+1, r.Score, r.DocID)
		if r.Title != "" {
			fmt.Printf("  %s", r.Title)
		}
		fmt.Println()
	}
	return nil
}

func runRebuild(args []string) error {
	fs, addr, timeout := dialFlags("rebuild")
	fs.Parse(args)

	var resp proto.RebuildResponse
	if err := call(*addr, *timeout, "Model.Rebuild", proto.RebuildRequest{}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("rebuild failed: %s", resp.Message)
	}
	fmt.Printf("rebuilt: %d documents, %d terms in %dms\n",
		resp.Documents, resp.VocabularyTerms, resp.DurationMs)
	return nil
}

func runTerm(args []string) error {
	fs, addr, timeout := dialFlags("term")
	asJSON := fs.Bool("json", false, "print the raw JSON response")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: searchctl term [flags] <term>")
	}

	var resp proto.TermResponse
	req := proto.TermRequest{Term: fs.Arg(0)}
	if err := call(*addr, *timeout, "Model.Term", req, &resp); err != nil {
		return err
	}
	if *asJSON {
		return printJSON(resp)
	}

	if !resp.InVocabulary {
		fmt.Printf("%s: not in vocabulary\n", resp.Term)
		return nil
	}
	fmt.Printf("term:                %s\n", resp.Term)
	fmt.Printf("document frequency:  %d\n", resp.DocumentFrequency)
	fmt.Printf("idf:                 %.6f\n", resp.IDF)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
