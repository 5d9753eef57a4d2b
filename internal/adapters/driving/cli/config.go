package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage lexsearch configuration",
	Long: `View and change configuration stored in config.toml.

Use subcommands to show the current settings or set individual keys.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it.

Common keys:
  embedding.provider   openai or ollama
  embedding.model      embedding model name
  embedding.base_url   API base URL override
  ingest.workers       embedding worker pool size
  ingest.rate_limit    embedding requests per second`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[embedding]")
	provider := configStore.GetString("embedding.provider")
	if provider == "" {
		provider = "openai (default)"
	}
	cmd.Printf("  provider: %s\n", provider)
	if model := configStore.GetString("embedding.model"); model != "" {
		cmd.Printf("  model: %s\n", model)
	}
	if url := configStore.GetString("embedding.base_url"); url != "" {
		cmd.Printf("  base_url: %s\n", url)
	}
	cmd.Println()

	cmd.Println("[ingest]")
	if n := configStore.GetInt("ingest.workers"); n > 0 {
		cmd.Printf("  workers: %d\n", n)
	} else {
		cmd.Println("  workers: 4 (default)")
	}
	if perSecond := configStore.GetFloat("ingest.rate_limit"); perSecond > 0 {
		cmd.Printf("  rate_limit: %g\n", perSecond)
	} else {
		cmd.Println("  rate_limit: unlimited")
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	configStore.Set(key, parseConfigValue(raw))

	if err := configStore.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("%s = %s\n", key, raw)
	return nil
}

// parseConfigValue types a raw value: int, float and bool literals are
// stored typed, everything else as a string.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
