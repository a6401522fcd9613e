package main

import (
	gojson "encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	adapterjson "github.com/simon-lentz/anf/adapter/json"
	"github.com/simon-lentz/anf/ast"
	"github.com/simon-lentz/anf/infer"
	"github.com/simon-lentz/anf/ir"
	"github.com/simon-lentz/anf/ir/visit"
	"github.com/simon-lentz/anf/parser"
	"github.com/simon-lentz/anf/vm"
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "anf",
		Short:         "Graph-based ANF front-end and reference evaluator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newParseCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newInferCmd())
	return root
}

func logger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadGraph decodes and parses a descriptor file.
func loadGraph(path string) (*ir.Graph, *ast.FuncDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	fd, result, err := adapterjson.NewAdapter().Decode(data, path)
	if err != nil {
		return nil, nil, err
	}
	if result.HasErrors() {
		return nil, nil, fmt.Errorf("decode %s:\n%s", path, result)
	}

	g, err := parser.Parse(fd, parser.WithLogger(logger()))
	if err != nil {
		return nil, nil, err
	}
	return g, fd, nil
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <descriptor>",
		Short: "Parse a descriptor and print a graph summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, fd, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			mgr := ir.NewManager()
			mgr.Add(g)
			graphs := mgr.Graphs()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d parameters, %d graphs\n",
				fd.Name, len(g.Parameters()), len(graphs))

			for _, h := range graphs {
				if h.Return() == nil {
					continue
				}
				nodes, err := visit.DFS(h.Return(), visit.SuccIncoming, visit.FreevarsBoundary(h, true))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s [%s]: %d parameters, %d nodes, %d free variables\n",
					h.Debug().Label(), h.ID().String()[:8], len(h.Parameters()), len(nodes), len(mgr.FreeVariablesTotal(h)))
			}
			return nil
		},
	}
}

func newEvalCmd() *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "eval <descriptor>",
		Short: "Evaluate a descriptor on an argument vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			g, _, err := loadGraph(cmdArgs[0])
			if err != nil {
				return err
			}

			var callArgs []any
			if argsJSON != "" {
				if err := gojson.Unmarshal([]byte(argsJSON), &callArgs); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}

			machine := vm.New(vm.WithLogger(logger()))
			result, err := machine.Evaluate(cmd.Context(), g, callArgs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", result)
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON array of argument values")
	return cmd
}

func newInferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer <descriptor>",
		Short: "Infer the result shape of a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			engine := infer.NewEngine(infer.WithLogger(logger()))
			refs := make([]infer.Reference, len(g.Parameters()))
			for i := range refs {
				refs[i] = infer.NewRef(nil)
			}
			shape, err := engine.InferShape(g, refs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", shape)
			return nil
		},
	}
}
