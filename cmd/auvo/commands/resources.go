package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/spf13/cobra"
)

// filterFunc turns the resource-specific flags of a list command into query
// options. It runs after flag parsing.
type filterFunc func(cmd *cobra.Command) ([]auvo.QueryOption, error)

// resourceSpec describes one API resource exposed as a command group.
type resourceSpec struct {
	name     string
	singular string
	endpoint string
	long     string
	filters  func(cmd *cobra.Command) filterFunc
}

// resourceEndpoints maps resource names accepted by export to endpoints.
var resourceEndpoints = map[string]string{
	"users":     auvo.EndpointUsers,
	"tasks":     auvo.EndpointTasks,
	"customers": auvo.EndpointCustomers,
	"teams":     auvo.EndpointTeams,
}

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	return newResourceCommand(resourceSpec{
		name:     "users",
		singular: "user",
		endpoint: auvo.EndpointUsers,
		long:     "List and manage Auvo users",
		filters:  userFilters,
	})
}

// NewTasksCommand creates the tasks command group.
func NewTasksCommand() *cobra.Command {
	return newResourceCommand(resourceSpec{
		name:     "tasks",
		singular: "task",
		endpoint: auvo.EndpointTasks,
		long:     "List and manage Auvo tasks",
		filters:  taskFilters,
	})
}

// NewCustomersCommand creates the customers command group.
func NewCustomersCommand() *cobra.Command {
	return newResourceCommand(resourceSpec{
		name:     "customers",
		singular: "customer",
		endpoint: auvo.EndpointCustomers,
		long:     "List and manage Auvo customers",
		filters:  customerFilters,
	})
}

// NewTeamsCommand creates the teams command group.
func NewTeamsCommand() *cobra.Command {
	return newResourceCommand(resourceSpec{
		name:     "teams",
		singular: "team",
		endpoint: auvo.EndpointTeams,
		long:     "List and manage Auvo teams",
		filters:  teamFilters,
	})
}

func newResourceCommand(def resourceSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:     def.name,
		Aliases: []string{def.singular},
		Short:   "Manage " + def.name,
		Long:    def.long,
	}

	cmd.AddCommand(newResourceListCommand(def))
	cmd.AddCommand(newResourceGetCommand(def))
	cmd.AddCommand(newResourceCreateCommand(def))
	cmd.AddCommand(newResourceUpdateCommand(def))
	cmd.AddCommand(newResourceDeleteCommand(def))

	return cmd
}

func newResourceListCommand(def resourceSpec) *cobra.Command {
	var (
		allPages    bool
		page        int
		pageSize    int
		maxPages    int
		filterPairs []string
		columns     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + def.name,
		Long:  fmt.Sprintf("List %s, one page or every page with --all", def.name),
	}

	buildFilters := def.filters(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := buildFilters(cmd)
		if err != nil {
			return err
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

		query := client.Query(def.endpoint).With(opts...)
		for key, value := range raw {
			query.Where(key, value)
		}

		emptyMessage := fmt.Sprintf("No %s found", def.name)

		if allPages {
			aggregator := query.AllPages().MaxPages(maxPages)
			if cmd.Flags().Changed("page-size") {
				aggregator.PageSize(pageSize)
			}

			entities, err := aggregator.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", def.name, err)
			}

			return renderEntities(cmd.OutOrStdout(), entities, parseColumns(columns), emptyMessage)
		}

		result, err := query.Page(page).PageSize(pageSize).Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", def.name, err)
		}

		if result.List == nil {
			return renderEntity(cmd.OutOrStdout(), result.Body.Entity())
		}

		err = renderEntities(cmd.OutOrStdout(), result.List.Entities(), parseColumns(columns), emptyMessage)
		if err != nil {
			return err
		}

		if result.List.HasMorePages() {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\nShowing page %d (%d items in total). Use --all to fetch all pages.\n",
				result.List.CurrentPage(), result.List.TotalItems())
		}

		return nil
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop --all after this many pages (0 = unbounded)")
	cmd.Flags().StringArrayVar(&filterPairs, "filter", nil, "additional filter as key=value (repeatable)")
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated table columns")

	return cmd
}

func newResourceGetCommand(def resourceSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get " + def.singular + " details",
		Long:  fmt.Sprintf("Display detailed information about a specific %s", def.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			entity, err := client.Query(def.endpoint).First(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", def.singular, err)
			}

			return renderEntity(cmd.OutOrStdout(), entity)
		},
	}
}

func newResourceCreateCommand(def resourceSpec) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + def.singular,
		Long:  fmt.Sprintf("Create a %s from a JSON object", def.singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			body, err := client.Query(def.endpoint).Create(ctx, payload)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", def.singular, err)
			}

			return renderEntity(cmd.OutOrStdout(), body.Entity())
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON object with the "+def.singular+" fields")

	return cmd
}

func newResourceUpdateCommand(def resourceSpec) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a " + def.singular,
		Long:  fmt.Sprintf("Update an existing %s from a JSON object", def.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			body, err := client.Query(def.endpoint).Find(args[0]).Update(ctx, payload)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", def.singular, err)
			}

			return renderEntity(cmd.OutOrStdout(), body.Entity())
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON object with the fields to change")

	return cmd
}

func newResourceDeleteCommand(def resourceSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + def.singular,
		Long:  fmt.Sprintf("Delete a %s", def.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			_, err = client.Query(def.endpoint).Find(args[0]).Delete(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", def.singular, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", def.singular, args[0])

			return nil
		},
	}
}

// parseFilterPairs parses repeated key=value flags. Values that are valid
// JSON scalars (numbers, booleans) keep their type; anything else is a string.
func parseFilterPairs(pairs []string) (map[string]any, error) {
	filters := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, pair)
		}

		filters[key] = parseScalar(value)
	}

	return filters, nil
}

func parseScalar(value string) any {
	decoder := json.NewDecoder(strings.NewReader(value))
	decoder.UseNumber()

	var parsed any

	err := decoder.Decode(&parsed)
	if err != nil || decoder.More() {
		return value
	}

	switch parsed.(type) {
	case json.Number, bool:
		return parsed
	}

	return value
}

// parseData decodes a --data JSON object.
func parseData(data string) (map[string]any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, constants.ErrDataRequired
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(data)))
	decoder.UseNumber()

	var payload map[string]any

	err := decoder.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("invalid --data: %w", err)
	}

	return payload, nil
}

func userFilters(cmd *cobra.Command) filterFunc {
	var (
		userType  int
		available bool
		email     string
		login     string
	)

	cmd.Flags().IntVar(&userType, "user-type", 0, "filter by user type (1 user, 2 team manager, 3 administrator)")
	cmd.Flags().BoolVar(&available, "available", false, "only users available for tasks")
	cmd.Flags().StringVar(&email, "email", "", "filter by email")
	cmd.Flags().StringVar(&login, "login", "", "filter by login")

	return func(cmd *cobra.Command) ([]auvo.QueryOption, error) {
		var opts []auvo.QueryOption

		if cmd.Flags().Changed("user-type") {
			opts = append(opts, auvo.UserType(userType))
		}

		if available {
			opts = append(opts, auvo.AvailableForTasks())
		}

		if email != "" {
			opts = append(opts, auvo.UserEmail(email))
		}

		if login != "" {
			opts = append(opts, auvo.UserLogin(login))
		}

		return opts, nil
	}
}

func taskFilters(cmd *cobra.Command) filterFunc {
	var (
		start, end string
		userID     int
		customerID int
		status     string
		scheduled  bool
		completed  bool
		teamID     int
		taskType   int
		fields     string
	)

	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD or full timestamp)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD or full timestamp)")
	cmd.Flags().IntVar(&userID, "user-id", 0, "filter by assigned user")
	cmd.Flags().IntVar(&customerID, "customer-id", 0, "filter by customer")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "only scheduled tasks")
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed tasks")
	cmd.Flags().IntVar(&teamID, "team-id", 0, "filter by team")
	cmd.Flags().IntVar(&taskType, "type", 0, "filter by task type")
	cmd.Flags().StringVar(&fields, "select", "", "comma-separated fields to return")
	cmd.MarkFlagsMutuallyExclusive("scheduled", "completed", "status")
	cmd.MarkFlagsRequiredTogether("start", "end")

	return func(cmd *cobra.Command) ([]auvo.QueryOption, error) {
		var opts []auvo.QueryOption

		if start != "" {
			opts = append(opts, auvo.Period(start, end))
		}

		if cmd.Flags().Changed("user-id") {
			opts = append(opts, auvo.TaskUser(userID))
		}

		if cmd.Flags().Changed("customer-id") {
			opts = append(opts, auvo.TaskCustomer(customerID))
		}

		switch {
		case status != "":
			opts = append(opts, auvo.TaskStatus(status))
		case scheduled:
			opts = append(opts, auvo.Scheduled())
		case completed:
			opts = append(opts, auvo.Completed())
		}

		if cmd.Flags().Changed("team-id") {
			opts = append(opts, auvo.TaskTeam(teamID))
		}

		if cmd.Flags().Changed("type") {
			opts = append(opts, auvo.TaskType(taskType))
		}

		if fields != "" {
			opts = append(opts, func(q *auvo.Query) { q.SelectFields(fields) })
		}

		return opts, nil
	}
}

func customerFilters(cmd *cobra.Command) filterFunc {
	var (
		segmentID int
		groupID   int
		active    bool
		email     string
		document  string
		name      string
	)

	cmd.Flags().IntVar(&segmentID, "segment-id", 0, "filter by segment")
	cmd.Flags().IntVar(&groupID, "group-id", 0, "filter by group")
	cmd.Flags().BoolVar(&active, "active", false, "only active customers")
	cmd.Flags().StringVar(&email, "email", "", "filter by email")
	cmd.Flags().StringVar(&document, "document", "", "filter by CPF/CNPJ")
	cmd.Flags().StringVar(&name, "name", "", "filter by name")

	return func(cmd *cobra.Command) ([]auvo.QueryOption, error) {
		var opts []auvo.QueryOption

		if cmd.Flags().Changed("segment-id") {
			opts = append(opts, auvo.SegmentID(segmentID))
		}

		if cmd.Flags().Changed("group-id") {
			opts = append(opts, auvo.GroupID(groupID))
		}

		if active {
			opts = append(opts, auvo.ActiveOnly())
		}

		if email != "" {
			opts = append(opts, auvo.CustomerEmail(email))
		}

		if document != "" {
			opts = append(opts, auvo.Document(document))
		}

		if name != "" {
			opts = append(opts, auvo.CustomerName(name))
		}

		return opts, nil
	}
}

func teamFilters(cmd *cobra.Command) filterFunc {
	var (
		active    bool
		managerID int
		name      string
	)

	cmd.Flags().BoolVar(&active, "active", false, "only active teams")
	cmd.Flags().IntVar(&managerID, "manager-id", 0, "filter by manager")
	cmd.Flags().StringVar(&name, "name", "", "filter by name")

	return func(cmd *cobra.Command) ([]auvo.QueryOption, error) {
		var opts []auvo.QueryOption

		if active {
			opts = append(opts, auvo.ActiveOnly())
		}

		if cmd.Flags().Changed("manager-id") {
			opts = append(opts, auvo.ManagerID(managerID))
		}

		if name != "" {
			opts = append(opts, auvo.TeamName(name))
		}

		return opts, nil
	}
}
