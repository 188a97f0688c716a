package cmd

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/leveliz/internal/dataset"
	"github.com/abhisek/leveliz/internal/engine"
	"github.com/abhisek/leveliz/internal/fusion"
)

var (
	reportTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	reportGood  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	reportDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the trained ensemble against a labelled dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		modelDir, _ := cmd.Flags().GetString("models")
		dataPath, _ := cmd.Flags().GetString("data")
		if modelDir == "" {
			modelDir = cfg.ModelDir
		}

		records, err := dataset.Load(dataPath, true)
		if err != nil {
			return err
		}

		eng := engine.New(0)
		if err := eng.Load(modelDir); err != nil {
			return err
		}
		if err := loadFeatureState(modelDir, eng.Features()); err != nil {
			return err
		}

		eval, err := eng.Evaluate(records)
		if err != nil {
			return err
		}

		fmt.Println(renderEvaluation(eval))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("data", "", "Path to labelled dataset (.csv, .json, .db)")
	evaluateCmd.Flags().String("models", "", "Model directory (default from config)")
	_ = evaluateCmd.MarkFlagRequired("data")
}

func renderEvaluation(eval *engine.Evaluation) string {
	var b strings.Builder

	b.WriteString(reportTitle.Render("Evaluation") + "\n\n")

	if eval.NumSamples == 0 {
		b.WriteString(reportDim.Render("No rows could be evaluated.") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Samples:  %d\n", eval.NumSamples))
	b.WriteString("Accuracy: " + reportGood.Render(fmt.Sprintf("%.1f%%", eval.Accuracy*100)) + "\n\n")

	b.WriteString(reportTitle.Render("Per level") + "\n")
	for level := 1; level <= 3; level++ {
		stats, ok := eval.PerLevel[level]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-12s %4d/%-4d  %.1f%%\n",
			fusion.LevelName(level), stats.Correct, stats.Total, stats.Accuracy*100))
	}

	b.WriteString("\n" + reportTitle.Render("Confusion (actual x predicted)") + "\n")
	b.WriteString(reportDim.Render("               L1     L2     L3") + "\n")
	for actual := 0; actual < 3; actual++ {
		b.WriteString(fmt.Sprintf("  %-12s", fusion.LevelName(actual+1)))
		for predicted := 0; predicted < 3; predicted++ {
			b.WriteString(fmt.Sprintf(" %6d", eval.Confusion[actual][predicted]))
		}
		b.WriteString("\n")
	}

	return b.String()
}
