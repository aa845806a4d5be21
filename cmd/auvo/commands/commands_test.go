package commands

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	return names
}

func TestResourceCommands(t *testing.T) {
	tests := []struct {
		cmd      *cobra.Command
		use      string
		alias    string
		filters  []string
		longDesc string
	}{
		{NewUsersCommand(), "users", "user", []string{"user-type", "available", "email", "login"}, "List and manage Auvo users"},
		{NewTasksCommand(), "tasks", "task", []string{"start", "end", "user-id", "customer-id", "status", "scheduled", "completed", "team-id", "type", "select"}, "List and manage Auvo tasks"},
		{NewCustomersCommand(), "customers", "customer", []string{"segment-id", "group-id", "active", "email", "document", "name"}, "List and manage Auvo customers"},
		{NewTeamsCommand(), "teams", "team", []string{"active", "manager-id", "name"}, "List and manage Auvo teams"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.use, tt.cmd.Use)
		assert.Equal(t, []string{tt.alias}, tt.cmd.Aliases)
		assert.Equal(t, "Manage "+tt.use, tt.cmd.Short)
		assert.Equal(t, tt.longDesc, tt.cmd.Long)

		names := subcommandNames(tt.cmd)
		assert.Len(t, names, 5)

		for _, name := range []string{"list", "get", "create", "update", "delete"} {
			assert.Contains(t, names, name)
		}

		list, _, err := tt.cmd.Find([]string{"list"})
		require.NoError(t, err)

		for _, flag := range append([]string{"all", "page", "page-size", "max-pages", "filter", "columns"}, tt.filters...) {
			assert.NotNil(t, list.Flags().Lookup(flag), "%s list: flag %s should exist", tt.use, flag)
		}
	}
}

func TestResourceSubcommands(t *testing.T) {
	def := resourceSpec{name: "teams", singular: "team", endpoint: auvo.EndpointTeams, filters: teamFilters}

	get := newResourceGetCommand(def)
	assert.Equal(t, "get ID", get.Use)
	assert.Equal(t, "Get team details", get.Short)
	assert.Equal(t, "Display detailed information about a specific team", get.Long)
	assert.NotNil(t, get.RunE)
	assert.Error(t, get.Args(get, []string{}))
	assert.NoError(t, get.Args(get, []string{"1"}))

	create := newResourceCreateCommand(def)
	assert.Equal(t, "create", create.Use)
	assert.NotNil(t, create.Flags().Lookup("data"))

	update := newResourceUpdateCommand(def)
	assert.Equal(t, "update ID", update.Use)
	assert.NotNil(t, update.Flags().Lookup("data"))

	del := newResourceDeleteCommand(def)
	assert.Equal(t, "delete ID", del.Use)
	assert.Equal(t, "Delete a team", del.Short)

	list := newResourceListCommand(def)
	assert.Equal(t, "10", list.Flags().Lookup("page-size").DefValue)
	assert.Equal(t, "1", list.Flags().Lookup("page").DefValue)
}

func TestExportCommandStructure(t *testing.T) {
	cmd := NewExportCommand()
	assert.Equal(t, "export RESOURCE", cmd.Use)
	assert.Equal(t, "Export a whole collection", cmd.Short)
	assert.ElementsMatch(t, []string{"users", "tasks", "customers", "teams"}, cmd.ValidArgs)

	for _, flag := range []string{"nats-url", "subject-prefix", "jsonl", "page-size", "max-pages", "filter"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "Flag %s should exist", flag)
	}

	assert.Equal(t, "auvo", cmd.Flags().Lookup("subject-prefix").DefValue)
	assert.Equal(t, "100", cmd.Flags().Lookup("page-size").DefValue)
}

func TestLoginAndConfigCommands(t *testing.T) {
	login := NewLoginCommand()
	assert.Equal(t, "login", login.Use)
	assert.NotNil(t, login.Flags().Lookup("api-key"))
	assert.NotNil(t, login.Flags().Lookup("api-token"))

	config := NewConfigCommand()
	assert.Equal(t, "config", config.Use)
	assert.ElementsMatch(t, []string{"show", "set"}, subcommandNames(config))

	version := NewVersionCommand("1.0.0", "abc", "today")
	assert.Equal(t, "version", version.Use)
}

func TestParseFilterPairs(t *testing.T) {
	filters, err := parseFilterPairs([]string{
		"status=completed",
		"userId=42",
		"active=true",
		"name=ACME=Corp",
		" email = a@b.c",
		"document=01234",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"status":   "completed",
		"userId":   json.Number("42"),
		"active":   true,
		"name":     "ACME=Corp",
		"email":    " a@b.c",
		"document": "01234",
	}, filters)

	for _, invalid := range []string{"status", "=value", ""} {
		_, err := parseFilterPairs([]string{invalid})
		assert.ErrorIs(t, err, constants.ErrInvalidFilter, invalid)
	}
}

func TestParseScalar(t *testing.T) {
	assert.Equal(t, json.Number("3.5"), parseScalar("3.5"))
	assert.Equal(t, false, parseScalar("false"))
	assert.Equal(t, "null", parseScalar("null"))
	assert.Equal(t, `"quoted"`, parseScalar(`"quoted"`))
	assert.Equal(t, "1 2", parseScalar("1 2"))
	assert.Equal(t, "", parseScalar(""))
}

func TestParseData(t *testing.T) {
	payload, err := parseData(`{"name":"ACME","segmentId":3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ACME", "segmentId": json.Number("3")}, payload)

	_, err = parseData("  ")
	require.ErrorIs(t, err, constants.ErrDataRequired)

	_, err = parseData(`[1,2]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --data")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestConfigSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		check   func(t *testing.T, c *Config)
		wantErr error
	}{
		{key: "base_uri", value: "https://sandbox.example/v2", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, "https://sandbox.example/v2", c.BaseURI)
		}},
		{key: "api_key", value: "k", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, "k", c.APIKey)
		}},
		{key: "api_token", value: "s", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, "s", c.APIToken)
		}},
		{key: "timeout", value: "60", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, 60, c.Timeout)
		}},
		{key: "retry", value: "0", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, 0, c.Retry)
		}},
		{key: "retry_delay", value: "250", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, 250, c.RetryDelay)
		}},
		{key: "log_requests", value: "true", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.True(t, c.LogRequests)
		}},
		{key: "output", value: "yaml", check: func(t *testing.T, c *Config) {
			t.Helper()
			assert.Equal(t, "yaml", c.Output)
		}},
		{key: "output", value: "xml", wantErr: constants.ErrUnsupportedOutput},
		{key: "colour", value: "red", wantErr: constants.ErrUnknownConfigKey},
	}

	for _, tt := range tests {
		config := &Config{}
		err := config.set(tt.key, tt.value)

		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr)

			continue
		}

		require.NoError(t, err, tt.key)
		tt.check(t, config)
	}

	for _, key := range []string{"timeout", "retry", "retry_delay"} {
		assert.Error(t, (&Config{}).set(key, "-1"), key)
		assert.Error(t, (&Config{}).set(key, "abc"), key)
	}

	assert.Error(t, (&Config{}).set("log_requests", "maybe"))
}

func TestConfigMaskedAndClientConfig(t *testing.T) {
	config := &Config{
		BaseURI:     "https://api.auvo.com.br/v2",
		APIKey:      "key",
		APIToken:    "secret",
		Timeout:     45,
		Retry:       0,
		RetryDelay:  250,
		LogRequests: true,
	}

	masked := config.masked()
	assert.Equal(t, constants.MaskedSecret, masked.APIToken)
	assert.Equal(t, "key", masked.APIKey)
	assert.Equal(t, "secret", config.APIToken)
	assert.Empty(t, (&Config{}).masked().APIToken)

	clientConfig := config.clientConfig()
	assert.Equal(t, "key", clientConfig.APIKey)
	assert.Equal(t, "secret", clientConfig.APIToken)
	assert.Equal(t, -1, clientConfig.RetryMax)
	assert.Equal(t, 45*time.Second, clientConfig.Timeout)
	assert.Equal(t, 250*time.Millisecond, clientConfig.RetryDelay)
	assert.True(t, clientConfig.LogRequests)

	config.Retry = 2
	assert.Equal(t, 2, config.clientConfig().RetryMax)
}

func TestInferColumns(t *testing.T) {
	entity := auvo.Entity{
		"name":     "Ana",
		"id":       json.Number("1"),
		"address":  map[string]any{"city": "Recife"},
		"tags":     []any{"a"},
		"active":   true,
		"email":    "ana@example.com",
		"login":    "ana",
		"userType": json.Number("1"),
		"zone":     "NE",
	}

	assert.Equal(t, []string{"id", "active", "email", "login", "name", "userType"}, inferColumns(entity))
	assert.Empty(t, inferColumns(auvo.Entity{"nested": map[string]any{}}))
}

func TestParseColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, parseColumns(" id, ,name "))
	assert.Nil(t, parseColumns(""))
}

func TestFormatCell(t *testing.T) {
	assert.Empty(t, formatCell(nil))
	assert.Equal(t, "text", formatCell("text"))
	assert.Equal(t, "42", formatCell(json.Number("42")))
	assert.Equal(t, "yes", formatCell(true))
	assert.Equal(t, "no", formatCell(false))
	assert.Equal(t, `{"city":"Recife"}`, formatCell(map[string]any{"city": "Recife"}))
	assert.Equal(t, `[1,"a"]`, formatCell([]any{1, "a"}))
	assert.Equal(t, "3.5", formatCell(3.5))
}

func TestToPlain(t *testing.T) {
	plain := toPlain([]auvo.Entity{{
		"id":     json.Number("7"),
		"score":  json.Number("1.5"),
		"nested": map[string]any{"count": json.Number("2")},
		"list":   []any{json.Number("3")},
	}})

	assert.Equal(t, []any{map[string]any{
		"id":     int64(7),
		"score":  1.5,
		"nested": map[string]any{"count": int64(2)},
		"list":   []any{int64(3)},
	}}, plain)
}

func TestIsSupportedOutput(t *testing.T) {
	assert.True(t, isSupportedOutput("table"))
	assert.True(t, isSupportedOutput("json"))
	assert.True(t, isSupportedOutput("yaml"))
	assert.False(t, isSupportedOutput("csv"))
}
