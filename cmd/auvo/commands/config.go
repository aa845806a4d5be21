package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/fivetwenty-io/auvo-client/pkg/auvoclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys, as written to the config file.
const (
	keyBaseURI     = "base_uri"
	keyAPIKey      = "api_key"
	keyAPIToken    = "api_token"
	keyTimeout     = "timeout"
	keyRetry       = "retry"
	keyRetryDelay  = "retry_delay"
	keyLogRequests = "log_requests"
	keyOutput      = "output"
)

// Config represents the CLI configuration. Timeout is in seconds and
// RetryDelay in milliseconds, matching the AUVO_* environment variables.
type Config struct {
	BaseURI     string `json:"base_uri"     yaml:"base_uri"`
	APIKey      string `json:"api_key"      yaml:"api_key"`
	APIToken    string `json:"api_token"    yaml:"api_token"`
	Timeout     int    `json:"timeout"      yaml:"timeout"`
	Retry       int    `json:"retry"        yaml:"retry"`
	RetryDelay  int    `json:"retry_delay"  yaml:"retry_delay"`
	LogRequests bool   `json:"log_requests" yaml:"log_requests"`
	Output      string `json:"output"       yaml:"output"`
}

// BindEnvironment maps the AUVO_* environment variables onto config keys and
// registers the defaults.
func BindEnvironment() {
	viper.SetEnvPrefix("AUVO")
	viper.AutomaticEnv()

	_ = viper.BindEnv(keyBaseURI, auvoclient.EnvBaseURL)
	_ = viper.BindEnv(keyAPIKey, auvoclient.EnvAPIKey)
	_ = viper.BindEnv(keyAPIToken, auvoclient.EnvAPIToken)
	_ = viper.BindEnv(keyTimeout, auvoclient.EnvTimeout)
	_ = viper.BindEnv(keyRetry, auvoclient.EnvRetry)
	_ = viper.BindEnv(keyRetryDelay, auvoclient.EnvRetryDelay)
	_ = viper.BindEnv(keyLogRequests, auvoclient.EnvLogRequests)

	viper.SetDefault(keyBaseURI, constants.DefaultBaseURI)
	viper.SetDefault(keyTimeout, int(constants.DefaultHTTPTimeout/time.Second))
	viper.SetDefault(keyRetry, constants.DefaultRetryMax)
	viper.SetDefault(keyRetryDelay, int(constants.DefaultRetryDelay/time.Millisecond))
	viper.SetDefault(keyLogRequests, false)
	viper.SetDefault(keyOutput, constants.FormatTable)
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the Auvo CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with the API token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(cmd.OutOrStdout())

				return encoder.Encode(config)
			default:
				return displayConfigTable(cmd, config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the configuration file.

Keys: base_uri, api_key, api_token, timeout, retry, retry_delay, log_requests, output`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := config.set(args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		BaseURI:     viper.GetString(keyBaseURI),
		APIKey:      viper.GetString(keyAPIKey),
		APIToken:    viper.GetString(keyAPIToken),
		Timeout:     viper.GetInt(keyTimeout),
		Retry:       viper.GetInt(keyRetry),
		RetryDelay:  viper.GetInt(keyRetryDelay),
		LogRequests: viper.GetBool(keyLogRequests),
		Output:      viper.GetString(keyOutput),
	}
}

// set assigns one key, validating its value.
func (c *Config) set(key, value string) error {
	switch key {
	case keyBaseURI:
		c.BaseURI = value
	case keyAPIKey:
		c.APIKey = value
	case keyAPIToken:
		c.APIToken = value
	case keyTimeout, keyRetry, keyRetryDelay:
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid value %q for %s: expected a non-negative integer", value, key)
		}

		switch key {
		case keyTimeout:
			c.Timeout = parsed
		case keyRetry:
			c.Retry = parsed
		default:
			c.RetryDelay = parsed
		}
	case keyLogRequests:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}

		c.LogRequests = parsed
	case keyOutput:
		if !isSupportedOutput(value) {
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, value)
		}

		c.Output = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// masked returns a copy safe to display.
func (c *Config) masked() *Config {
	masked := *c
	if masked.APIToken != "" {
		masked.APIToken = constants.MaskedSecret
	}

	return &masked
}

// clientConfig converts the CLI configuration to the library configuration.
func (c *Config) clientConfig() *auvo.Config {
	config := auvo.DefaultConfig()
	config.BaseURI = c.BaseURI
	config.APIKey = c.APIKey
	config.APIToken = c.APIToken
	config.LogRequests = c.LogRequests

	if c.Timeout > 0 {
		config.Timeout = time.Duration(c.Timeout) * time.Second
	}

	config.RetryMax = c.Retry
	if c.Retry == 0 {
		config.RetryMax = -1
	}

	if c.RetryDelay > 0 {
		config.RetryDelay = time.Duration(c.RetryDelay) * time.Millisecond
	}

	return config
}

func displayConfigTable(cmd *cobra.Command, config *Config) error {
	values := map[string]string{
		keyBaseURI:     config.BaseURI,
		keyAPIKey:      config.APIKey,
		keyAPIToken:    config.APIToken,
		keyTimeout:     strconv.Itoa(config.Timeout),
		keyRetry:       strconv.Itoa(config.Retry),
		keyRetryDelay:  strconv.Itoa(config.RetryDelay),
		keyLogRequests: strconv.FormatBool(config.LogRequests),
		keyOutput:      config.Output,
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")

	for _, key := range keys {
		value := values[key]
		if value == "" {
			value = constants.NotAvailable
		}

		_ = table.Append(key, value)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if file := viper.ConfigFileUsed(); file != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file: %s\n", file)
	}

	return nil
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	if flagFile := viper.GetString("config"); flagFile != "" {
		return flagFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".auvo", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set(keyBaseURI, config.BaseURI)
	viper.Set(keyAPIKey, config.APIKey)
	viper.Set(keyAPIToken, config.APIToken)
	viper.Set(keyTimeout, config.Timeout)
	viper.Set(keyRetry, config.Retry)
	viper.Set(keyRetryDelay, config.RetryDelay)
	viper.Set(keyLogRequests, config.LogRequests)
	viper.Set(keyOutput, config.Output)

	return nil
}

// createClient builds a client from the effective configuration.
func createClient(ctx context.Context) (auvo.Client, error) {
	config := loadConfig()
	if config.APIKey == "" || config.APIToken == "" {
		return nil, constants.ErrNoCredentials
	}

	clientConfig := config.clientConfig()

	verbose := viper.GetBool("verbose")
	if verbose || config.LogRequests {
		logger, err := newLogger(verbose)
		if err != nil {
			return nil, err
		}

		clientConfig.Logger = logger
		clientConfig.LogRequests = true
	}

	client, err := auvoclient.New(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func isSupportedOutput(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	}

	return false
}
