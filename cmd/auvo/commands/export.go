package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/internal/export"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		natsURL       string
		subjectPrefix string
		jsonLines     bool
		pageSize      int
		maxPages      int
		filterPairs   []string
	)

	cmd := &cobra.Command{
		Use:   "export RESOURCE",
		Short: "Export a whole collection",
		Long: `Fetch every page of a collection (users, tasks, customers or teams) and
publish each entity to NATS on <subject-prefix>.<resource>, or write it to
stdout as JSON lines.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "tasks", "customers", "teams"},
		RunE: func(cmd *cobra.Command, args []string) error {
			resource := strings.ToLower(args[0])

			endpoint, ok := resourceEndpoints[resource]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownResource, args[0])
			}

			if natsURL == "" && !jsonLines {
				return constants.ErrNoExportSink
			}

			raw, err := parseFilterPairs(filterPairs)
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			query := client.Query(endpoint)
			for key, value := range raw {
				query.Where(key, value)
			}

			var (
				sink    export.Sink
				subject string
			)

			if jsonLines {
				sink = export.NewJSONLinesSink(cmd.OutOrStdout())
			} else {
				conn, err := nats.Connect(natsURL, nats.Name("auvo-export"))
				if err != nil {
					return fmt.Errorf("failed to connect to NATS: %w", err)
				}

				defer func() {
					_ = conn.Drain()
				}()

				natsSink := export.NewNATSSink(conn, subjectPrefix)
				subject = natsSink.Subject(export.ResourceName(endpoint))
				sink = natsSink
			}

			written, err := export.RunWith(ctx, query, sink, pageSize, maxPages)
			closeErr := sink.Close()

			if err != nil {
				return fmt.Errorf("export of %s failed after %d entities: %w", resource, written, err)
			}

			if closeErr != nil {
				return fmt.Errorf("failed to flush export sink: %w", closeErr)
			}

			if !jsonLines {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", written, resource, subject)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&subjectPrefix, "subject-prefix", "auvo", "NATS subject prefix")
	cmd.Flags().BoolVar(&jsonLines, "jsonl", false, "write JSON lines to stdout instead of NATS")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.AggregatePageSize, "entities per page request")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = unbounded)")
	cmd.Flags().StringArrayVar(&filterPairs, "filter", nil, "filter as key=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("nats-url", "jsonl")

	return cmd
}
