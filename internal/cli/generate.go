package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate travel destination suggestions",
		Long:  "Generate themed travel destination suggestions with optional per-destination activities. See 'wayfarer themes' for valid themes.",
		Run:   runGenerate,
	}

	cmd.Flags().StringP("theme", "t", "", "Destination theme (required)")
	cmd.Flags().IntP("count", "c", model.DefaultDestinations, "Number of destinations (1-20)")
	cmd.Flags().Bool("activities", true, "Include suggested activities per destination")
	cmd.Flags().Bool("no-activities", false, "Skip activity suggestions")
	cmd.Flags().Bool("json", false, "Print the raw JSON result")

	cmd.MarkFlagRequired("theme")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	themeStr, _ := cmd.Flags().GetString("theme")
	count, _ := cmd.Flags().GetInt("count")
	withActivities, _ := cmd.Flags().GetBool("activities")
	noActivities, _ := cmd.Flags().GetBool("no-activities")
	asJSON, _ := cmd.Flags().GetBool("json")

	theme, err := model.ParseTheme(themeStr)
	if err != nil {
		exitErr("generate", err)
	}

	gen, store := newGenerator()
	defer store.Close()

	result, err := gen.Generate(cmd.Context(), model.GenerationRequest{
		Theme:             theme,
		Count:             count,
		IncludeActivities: withActivities && !noActivities,
	})
	if err != nil {
		exitErr("generate", err)
	}

	if asJSON {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
		return
	}
	printResult(result)
}

func printResult(res *model.GenerationResult) {
	suffix := ""
	if res.FromCache {
		suffix = ", cached"
	}
	fmt.Printf("%s destinations (%d%s):\n", res.Theme, len(res.Destinations), suffix)
	if res.Fallback {
		fmt.Println("note: the model answer was not fully parseable; some fields are placeholders")
	}
	for i, d := range res.Destinations {
		fmt.Printf("\n%d. %s", i+1, d.FullName())
		if d.Rating != nil {
			fmt.Printf(" (%.1f/5)", *d.Rating)
		}
		fmt.Println()
		if d.Description != "" {
			fmt.Printf("   %s\n", d.Description)
		}
		if d.BestTimeToVisit != "" {
			fmt.Printf("   Best time to visit: %s\n", d.BestTimeToVisit)
		}
		for _, a := range d.Activities {
			fmt.Printf("   - %s (%s, %.1fh, difficulty %d/5)\n", a.Name, a.Type, a.DurationHours, a.Difficulty)
		}
	}
	fmt.Printf("\ngenerated in %.2fs\n", res.Elapsed)
}
