package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cognitivediary/application/chat"
	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
	"cognitivediary/domain/services"
	"cognitivediary/infrastructure/remote"
	"cognitivediary/pkg/api"
	"cognitivediary/pkg/auth"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/spf13/cobra"
)

func newLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <user>",
		Short: "Print a user's stored diary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()

			g, err := loadGraph(ctx, c, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Output == "json" {
				nodes, edges := api.FromGraph(g)
				return writeJSON(out, api.GraphResponse{Username: args[0], Nodes: nodes, Edges: edges})
			}
			for _, n := range g.Nodes() {
				fmt.Fprintf(out, "%-6s %-10s %s\n", n.ID(), n.Kind(), oneLine(n.Content()))
			}
			for _, e := range g.Edges() {
				fmt.Fprintf(out, "%s -> %s (%s)\n", e.Source(), e.Target(), e.ID())
			}
			return nil
		},
	}
}

func newTraceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <user> <node>",
		Short: "Print the chain of thoughts leading to a node, root first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()

			g, err := loadGraph(ctx, c, args[0])
			if err != nil {
				return err
			}
			chain, err := traceChain(g, args[1])
			if err != nil {
				return err
			}
			ordered := chainNodes(chain)
			if opts.Output == "json" {
				return writeJSON(cmd.OutOrStdout(), ordered)
			}
			for i, n := range ordered {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s\n", i+1, n.ID, oneLine(n.Label))
			}
			return nil
		},
	}
}

func newAskCommand(opts *rootOptions) *cobra.Command {
	var (
		temperature float64
		maxTokens   int
	)
	cmd := &cobra.Command{
		Use:   "ask <user> <node>",
		Short: "Ask the model about a single thought",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()

			g, err := loadGraph(ctx, c, args[0])
			if err != nil {
				return err
			}
			node, ok := g.Node(valueobjects.NodeID(args[1]))
			if !ok {
				return pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", args[1]))
			}

			start := time.Now()
			answer, err := remote.NewLLMClient(c).Chat(ctx, ports.ChatRequest{
				Message:     node.Content(),
				Temperature: temperature,
				MaxTokens:   maxTokens,
			})
			if err != nil {
				return err
			}
			return printAnswer(cmd.OutOrStdout(), opts.Output, args[1], answer, time.Since(start))
		},
	}
	cmd.Flags().Float64Var(&temperature, "temperature", chat.DefaultTemperature, "Sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", chat.DefaultMaxTokens, "Answer length limit")
	return cmd
}

func newChainCommand(opts *rootOptions) *cobra.Command {
	var temperature float64
	cmd := &cobra.Command{
		Use:   "chain <user> <node>",
		Short: "Ask the model about a thought in light of the thoughts leading to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()

			g, err := loadGraph(ctx, c, args[0])
			if err != nil {
				return err
			}
			chain, err := traceChain(g, args[1])
			if err != nil {
				return err
			}
			if !chain.HasAncestors() {
				return pkgerrors.NewEmptyChain(args[1])
			}

			ordered := chainNodes(chain)
			start := time.Now()
			answer, err := remote.NewLLMClient(c).ChainChat(ctx, ports.ChainChatRequest{
				ChainNodes:        ordered,
				TargetNodeContent: ordered[len(ordered)-1].Label,
				Temperature:       temperature,
			})
			if err != nil {
				return err
			}
			return printAnswer(cmd.OutOrStdout(), opts.Output, args[1], answer, time.Since(start))
		},
	}
	cmd.Flags().Float64Var(&temperature, "temperature", chat.DefaultTemperature, "Sampling temperature")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		secret string
		issuer string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := auth.NewJWTService(auth.JWTConfig{SecretKey: secret, Issuer: issuer, TTL: ttl})
			if err != nil {
				return err
			}
			token, err := svc.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "cognitive-diary"), "Token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

// loadGraph fetches a user's graph. A user with nothing stored is an
// error here, unlike in the editor which starts them on the starter graph.
func loadGraph(ctx context.Context, c *remote.Client, username string) (*aggregates.Graph, error) {
	stored, found, err := remote.NewSnapshotRepository(c).Load(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("no diary stored for %s", username))
	}
	return stored.Graph, nil
}

func traceChain(g *aggregates.Graph, nodeID string) (services.Chain, error) {
	chain := services.TraceChain(g, valueobjects.NodeID(nodeID))
	if chain.IsEmpty() {
		return services.Chain{}, pkgerrors.NewNotFound(fmt.Sprintf("node %s not found", nodeID))
	}
	return chain, nil
}

func chainNodes(chain services.Chain) []ports.ChainNode {
	ordered := chain.RootFirst()
	out := make([]ports.ChainNode, len(ordered))
	for i, n := range ordered {
		out[i] = ports.ChainNode{ID: n.ID().String(), Label: n.Content()}
	}
	return out
}

type answerOutput struct {
	NodeID   string `json:"node_id"`
	Answer   string `json:"answer"`
	Duration string `json:"duration"`
}

func printAnswer(w io.Writer, format, nodeID, answer string, took time.Duration) error {
	if format == "json" {
		return writeJSON(w, answerOutput{NodeID: nodeID, Answer: answer, Duration: took.Round(time.Millisecond).String()})
	}
	_, err := fmt.Fprintln(w, answer)
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) > 60 {
		return string([]rune(s)[:57]) + "..."
	}
	return s
}
