package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/finetune"
)

func init() {
	ftCmd := &cobra.Command{
		Use:   "finetune",
		Short: "Fine-tuning workflow",
		Long:  "Build training datasets, launch fine-tuning jobs, and track their progress.",
	}

	datasetCmd := &cobra.Command{
		Use:   "dataset",
		Short: "Write the training dataset as JSONL",
		Run:   runFinetuneDataset,
	}

	uploadCmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a training file to the provider",
		Args:  cobra.ExactArgs(1),
		Run:   runFinetuneUpload,
	}

	createCmd := &cobra.Command{
		Use:   "create-job",
		Short: "Create a fine-tuning job",
		Run:   runFinetuneCreateJob,
	}
	createCmd.Flags().String("file", "", "Uploaded training file ID")
	createCmd.Flags().String("base-model", "", "Base model to fine-tune (default gpt-3.5-turbo)")
	createCmd.Flags().String("suffix", "", "Fine-tuned model name suffix")
	createCmd.Flags().String("n-epochs", "", "Training epochs")
	createCmd.Flags().String("spec", "", "YAML job spec file; its fields override flags")

	monitorCmd := &cobra.Command{
		Use:   "monitor [job-id]",
		Short: "Poll a job until it reaches a terminal state",
		Args:  cobra.ExactArgs(1),
		Run:   runFinetuneMonitor,
	}
	monitorCmd.Flags().Duration("max-wait", 0, "Monitoring budget (default WAYFARER_FINETUNE_MAX_WAIT)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Dataset, upload, create, and monitor in one go",
		Run:   runFinetuneRun,
	}
	runCmd.Flags().String("base-model", "", "Base model to fine-tune (default gpt-3.5-turbo)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List fine-tuned models at the provider",
		Run:   runFinetuneModels,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show locally recorded job history",
		Run:   runFinetuneHistory,
	}

	ftCmd.AddCommand(datasetCmd, uploadCmd, createCmd, monitorCmd, runCmd, modelsCmd, historyCmd)
	RootCmd.AddCommand(ftCmd)
}

func runFinetuneDataset(cmd *cobra.Command, args []string) {
	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	path, count, err := m.WriteDataset(cfg.TrainingDir())
	if err != nil {
		exitErr("write dataset", err)
	}
	fmt.Printf("wrote %d examples to %s\n", count, path)
}

func runFinetuneUpload(cmd *cobra.Command, args []string) {
	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	id, err := m.Upload(cmd.Context(), args[0])
	if err != nil {
		exitErr("upload training file", err)
	}
	fmt.Println(id)
}

func runFinetuneCreateJob(cmd *cobra.Command, args []string) {
	fileID, _ := cmd.Flags().GetString("file")
	baseModel, _ := cmd.Flags().GetString("base-model")
	suffix, _ := cmd.Flags().GetString("suffix")
	epochs, _ := cmd.Flags().GetString("n-epochs")
	specPath, _ := cmd.Flags().GetString("spec")

	req := finetune.JobRequest{
		TrainingFileID: fileID,
		BaseModel:      baseModel,
		Suffix:         suffix,
		NEpochs:        epochs,
	}
	if specPath != "" {
		spec, err := finetune.LoadJobSpec(specPath)
		if err != nil {
			exitErr("load job spec", err)
		}
		req = spec.Apply(req)
	}

	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	jobID, err := m.CreateJob(cmd.Context(), req)
	if err != nil {
		exitErr("create job", err)
	}
	fmt.Println(jobID)
}

func runFinetuneMonitor(cmd *cobra.Command, args []string) {
	maxWait, _ := cmd.Flags().GetDuration("max-wait")
	if maxWait <= 0 {
		maxWait = cfg.FineTuneMaxWait
	}

	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	result, err := m.Monitor(cmd.Context(), args[0], maxWait)
	if err != nil {
		exitErr("monitor job", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}

func runFinetuneRun(cmd *cobra.Command, args []string) {
	baseModel, _ := cmd.Flags().GetString("base-model")

	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	result, err := m.Run(cmd.Context(), baseModel)
	if err != nil {
		exitErr("fine-tune pipeline", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
	if result.Outcome == finetune.OutcomeCompleted && result.ModelID != "" {
		fmt.Printf("\nto use this model, set FINE_TUNED_MODEL_ID=%s and USE_FINE_TUNED_MODEL=true\n", result.ModelID)
	}
}

func runFinetuneModels(cmd *cobra.Command, args []string) {
	m, store := newFinetuneManager()
	if store != nil {
		defer store.Close()
	}

	models, err := m.ListFineTunedModels(cmd.Context())
	if err != nil {
		exitErr("list models", err)
	}

	b, _ := json.MarshalIndent(models, "", "  ")
	fmt.Println(string(b))
}

func runFinetuneHistory(cmd *cobra.Command, args []string) {
	store, err := finetune.OpenStore(cfg.JobsDBPath())
	if err != nil {
		exitErr("open job history", err)
	}
	defer store.Close()

	records, err := store.List(cmd.Context())
	if err != nil {
		exitErr("job history", err)
	}

	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(b))
}
