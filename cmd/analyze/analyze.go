// Package analyze implements the analyze command, tagging a single local
// image file through the detector and printing the result.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/john-samurai/birdtag-go/internal/aggregator"
	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/detector"
	"github.com/john-samurai/birdtag-go/internal/media"
	"github.com/john-samurai/birdtag-go/internal/sampler"
)

// Command creates the analyze command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [input file]",
		Short: "Detect and tag bird species in a local image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, args[0])
		},
	}
}

func run(settings *conf.Settings, path string) error {
	if media.FileTypeForKey(path) != media.FileTypeImage {
		return fmt.Errorf("unsupported file type for %s, expected an image", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	det := detector.NewHTTPDetector(&settings.Detector)
	agg := aggregator.New(det, sampler.New(settings.Sampler.PerSecond), settings.Detector.Threshold)

	ctx, cancel := context.WithTimeout(context.Background(), settings.Detector.Timeout)
	defer cancel()

	results, err := agg.AggregateImage(ctx, data)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	output, err := json.MarshalIndent(aggregator.Tags(results), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Println(string(output))
	return nil
}
