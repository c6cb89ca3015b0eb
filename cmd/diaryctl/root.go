package main

import (
	"context"
	"os"
	"time"

	"cognitivediary/infrastructure/remote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

type rootOptions struct {
	Backend string
	Token   string
	Timeout time.Duration
	Output  string
	Verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "diaryctl",
		Short: "Inspect cognitive diaries and query the model",
		Long: `diaryctl talks to a running diary backend. It loads stored graphs,
traces the chain of thoughts leading to a node and asks the model about a
node alone or in light of its chain.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.Backend, "backend", envOr("BACKEND_URL", "http://localhost:8080"), "Backend base URL")
	root.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("DIARY_TOKEN"), "Bearer token")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "Request timeout")
	root.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests")

	_ = root.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newLoadCommand(opts))
	root.AddCommand(newTraceCommand(opts))
	root.AddCommand(newAskCommand(opts))
	root.AddCommand(newChainCommand(opts))
	root.AddCommand(newTokenCommand())
	return root
}

// client builds the remote client and a request context for one command
func (o *rootOptions) client(cmd *cobra.Command) (*remote.Client, context.Context, context.CancelFunc) {
	logger := zap.NewNop()
	if o.Verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	var clientOpts []remote.Option
	if o.Token != "" {
		clientOpts = append(clientOpts, remote.WithToken(o.Token))
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	return remote.NewClient(o.Backend, logger, clientOpts...), ctx, cancel
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
