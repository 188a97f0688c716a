package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/leveliz/internal/dataset"
	"github.com/abhisek/leveliz/internal/engine"
	"github.com/abhisek/leveliz/internal/features"
)

// featureStateFile persists the feature engine's cohorts and
// thresholds next to the model artifacts, so predictions after a
// reload see the same percentiles as training did.
const featureStateFile = "features.json"

type featureState struct {
	Thresholds features.Thresholds   `json:"thresholds"`
	Cohorts    features.GradeCohorts `json:"cohorts"`
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the ensemble on a labelled dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataPath, _ := cmd.Flags().GetString("data")
		outDir, _ := cmd.Flags().GetString("out")
		seed, _ := cmd.Flags().GetInt64("seed")
		if outDir == "" {
			outDir = cfg.ModelDir
		}

		records, err := dataset.Load(dataPath, true)
		if err != nil {
			return err
		}

		eng := engine.New(seed)
		eng.Features().UpdateGradeCohorts(dataset.Cohorts(records))
		eng.Features().UpdateThresholds(cfg.ApplyThresholds(dataset.ComputeThresholds(records)))

		if err := eng.Train(records); err != nil {
			return err
		}
		if err := eng.Save(outDir); err != nil {
			return err
		}
		if err := saveFeatureState(outDir, eng.Features()); err != nil {
			return err
		}

		fmt.Printf("Trained on %d records; models saved to %s\n", len(records), outDir)
		return nil
	},
}

func init() {
	trainCmd.Flags().String("data", "", "Path to labelled dataset (.csv, .json, .db)")
	trainCmd.Flags().String("out", "", "Model output directory (default from config)")
	trainCmd.Flags().Int64("seed", 42, "Seed for model randomness")
	_ = trainCmd.MarkFlagRequired("data")
}

func saveFeatureState(dir string, fe *features.Engine) error {
	state := featureState{Thresholds: fe.Thresholds(), Cohorts: fe.Cohorts()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feature state: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, featureStateFile), data, 0o644)
}

// loadFeatureState restores cohorts/thresholds if the artifact exists;
// a missing file leaves defaults in place.
func loadFeatureState(dir string, fe *features.Engine) error {
	data, err := os.ReadFile(filepath.Join(dir, featureStateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read feature state: %w", err)
	}
	var state featureState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal feature state: %w", err)
	}
	fe.UpdateThresholds(state.Thresholds)
	fe.UpdateGradeCohorts(state.Cohorts)
	return nil
}
