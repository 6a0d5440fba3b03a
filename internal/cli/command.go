package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/ostrova/agora/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agora",
		Short: "Crowd-sourced civic vocabulary definitions",
		Long: `agora collects crowd-sourced definitions of civic deliberation
vocabulary. Each definition fills three slots (type or category, key
attributes, impact or purpose) with text, drawing, audio or image cards,
in English or German.

Examples:
  agora terms                       # List the vocabulary terms
  agora define DEMOCRACY            # Compose a definition interactively
  agora definitions DEMOCRACY       # Show the community feed for a term
  agora like <definition-id>        # Toggle your like on a definition`,
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".local", "state", "agora")

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.agora.yaml)")
	cmd.PersistentFlags().StringVar(&flags.DataDir, "data-dir", defaultDataDir, "Directory for the definition database and media blobs")
	cmd.PersistentFlags().StringVarP(&flags.Language, "language", "l", flags.Language, "Interface language (en or de)")

	// Local flags
	cmd.PersistentFlags().StringVar(&flags.Search, "search", "", "Filter the definition feed by a search phrase")
	cmd.PersistentFlags().StringVar(&flags.Sort, "sort", flags.Sort, "Feed order: recent, popular or random")
	cmd.PersistentFlags().BoolVar(&flags.Translate, "translate", false, "Translate contributed text cards into the interface language")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("data.directory", cmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("language", cmd.PersistentFlags().Lookup("language"))
	viper.BindPFlag("feed.search", cmd.PersistentFlags().Lookup("search"))
	viper.BindPFlag("feed.sort", cmd.PersistentFlags().Lookup("sort"))
	viper.BindPFlag("translation.enabled", cmd.PersistentFlags().Lookup("translate"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".agora" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".agora")
	}

	// Environment variables
	viper.SetEnvPrefix("AGORA")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("translation.openai_key")
}
