package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/leveliz/internal/dataset"
	"github.com/abhisek/leveliz/internal/engine"
	"github.com/abhisek/leveliz/internal/features"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify one student or a file of records",
	RunE: func(cmd *cobra.Command, args []string) error {
		modelDir, _ := cmd.Flags().GetString("models")
		scenario, _ := cmd.Flags().GetString("scenario")
		dataPath, _ := cmd.Flags().GetString("data")
		if modelDir == "" {
			modelDir = cfg.ModelDir
		}
		if scenario == "" {
			scenario = cfg.Scenario
		}

		eng := engine.New(0)
		if err := eng.Load(modelDir); err != nil {
			return err
		}
		if err := loadFeatureState(modelDir, eng.Features()); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if dataPath != "" {
			records, err := dataset.Load(dataPath, false)
			if err != nil {
				return err
			}
			return enc.Encode(eng.PredictBatch(records, scenario))
		}

		rec, err := recordFromFlags(cmd)
		if err != nil {
			return err
		}
		pred, err := eng.Predict(rec, scenario)
		if err != nil {
			return err
		}
		return enc.Encode(pred)
	},
}

func init() {
	predictCmd.Flags().String("models", "", "Model directory (default from config)")
	predictCmd.Flags().String("scenario", "", "Weight scenario: default, high_confidence, exploratory")
	predictCmd.Flags().String("data", "", "Batch input file; omit to classify a single record from flags")
	predictCmd.Flags().String("user", "student", "User ID for a single record")
	predictCmd.Flags().Float64("score", -1, "Average score (0-100)")
	predictCmd.Flags().Float64("time", -1, "Average time to complete, seconds")
	predictCmd.Flags().Int("grade", 0, "Grade (positive integer)")
}

func recordFromFlags(cmd *cobra.Command) (*features.RawRecord, error) {
	user, _ := cmd.Flags().GetString("user")
	grade, _ := cmd.Flags().GetInt("grade")
	if grade <= 0 {
		return nil, fmt.Errorf("either --data or --score/--time/--grade is required")
	}

	rec := &features.RawRecord{UserID: user, Grade: grade}
	if score, _ := cmd.Flags().GetFloat64("score"); score >= 0 {
		rec.AvgScore = &score
	}
	if t, _ := cmd.Flags().GetFloat64("time"); t >= 0 {
		rec.AvgTime = &t
	}
	return rec, nil
}
