package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/config"
	"github.com/mait-chat/backend/internal/model/persona"
	"github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/internal/service/completion"
)

type options struct {
	endpoint  string
	token     string
	timeout   time.Duration
	profile   string
	assistant string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "chatcli",
		Short: "Chat with the portfolio assistant from a terminal",
		Long: `chatcli opens one chat session against a completion endpoint.
Each line read from stdin is submitted as a message; /quit ends the session.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("endpoint") {
				opts.endpoint = cfg.Completion.Endpoint
			}
			if !cmd.Flags().Changed("token") {
				opts.token = cfg.Completion.Token
			}
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = cfg.Completion.Timeout
			}
			if !cmd.Flags().Changed("profile") {
				opts.profile = cfg.Assistant.ProfilePath
			}
			if !cmd.Flags().Changed("assistant") {
				opts.assistant = cfg.Assistant.ID
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if opts.verbose {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			client, err := completion.NewClient(opts.endpoint,
				completion.WithTimeout(opts.timeout),
				completion.WithBearerToken(opts.token),
				completion.WithHeader("User-Agent", "mait-chatcli"),
				completion.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			greeting, err := greetingFor(opts.profile, opts.assistant)
			if err != nil {
				return err
			}

			session := chat.NewSession("cli", greeting, client, logger)
			return converse(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", completion.DefaultEndpoint, "completion endpoint URL")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token sent to the endpoint")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "YAML assistant profile")
	cmd.Flags().StringVar(&opts.assistant, "assistant", persona.DefaultID, "assistant profile id")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	return cmd
}

// greetingFor picks the opening line the same way the server does.
func greetingFor(profilePath, assistantID string) (string, error) {
	items := persona.Seed()
	if profilePath != "" {
		loaded, err := persona.LoadFile(profilePath)
		if err != nil {
			return "", err
		}
		items = append(loaded, items...)
	}
	return persona.NewMemoryStore(items).WithDefault(assistantID).Default().OpeningLine, nil
}

// converse runs the read-submit-print loop until in is exhausted or /quit.
func converse(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	defer session.Close()

	printed := 0
	flush := func() {
		msgs := session.State().Messages
		for _, m := range msgs[printed:] {
			if m.IsBot {
				fmt.Fprintf(out, "bot> %s\n", m.Text)
			}
		}
		printed = len(msgs)
	}

	session.Activate()
	flush()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		session.UpdateDraft(line)
		session.Submit(ctx)
		flush()
	}
}
