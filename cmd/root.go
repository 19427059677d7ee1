package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/john-samurai/birdtag-go/cmd/analyze"
	"github.com/john-samurai/birdtag-go/cmd/serve"
	"github.com/john-samurai/birdtag-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "birdtag",
		Short: "BirdTag media tagging service CLI",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		analyze.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines global flags and binds them so command line arguments
// take precedence over the config file.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Main.Debug, "debug", "d", viper.GetBool("main.debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64VarP(&settings.Detector.Threshold, "threshold", "t", viper.GetFloat64("detector.threshold"), "Detection confidence threshold, exclusive lower bound")
	rootCmd.PersistentFlags().StringVar(&settings.Detector.Endpoint, "detector", viper.GetString("detector.endpoint"), "Species detector HTTP endpoint")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
