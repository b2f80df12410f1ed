package main

import (
	"encoding/csv"
	"io"
	"loanapproval/internal/config"
	"loanapproval/internal/ingest"
	"loanapproval/internal/pipeline"
	"loanapproval/internal/serving"
	"loanapproval/pkg/logger"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// predictCommand constructs the 'predict' subcommand that classifies every
// applicant of a CSV file with the latest published artifact.
func predictCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classifies the applicants of a CSV file with the latest artifact",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := logger.Named(cmd.Context(), "predict")
			input, _ := cmd.Flags().GetString("input")

			b := getBackend(ctx, cfg)
			defer b.close()

			predictor := serving.New(pipeline.New(pipeline.NewOptions(cfg)), b.artifacts)
			loaded, err := predictor.Reload(ctx)
			if err != nil {
				logger.Fatal(ctx, "could not load artifact", zap.Error(err))
			}
			if !loaded {
				logger.Fatal(ctx, "no artifact has been published yet")
			}

			var r io.Reader = os.Stdin
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					logger.Fatal(ctx, "could not open input", zap.String("input", input), zap.Error(err))
				}
				defer f.Close()
				r = f
			}
			records, err := ingest.ReadUnlabeled(r)
			if err != nil {
				logger.Fatal(ctx, "could not read input", zap.Error(err))
			}

			w := csv.NewWriter(os.Stdout)
			_ = w.Write([]string{"applicant_id", "decision", "probability", "fraud_flag", "first_time_applicant"})
			for i, record := range records {
				p, err := predictor.Predict(ctx, record)
				if err != nil {
					logger.Fatal(ctx, "could not classify applicant", zap.Int("row", i+1), zap.Error(err))
				}
				for _, d := range p.Diagnostics {
					logger.Warn(ctx, "applicant value replaced by default",
						zap.Int("row", i+1), zap.String("field", d.Field), zap.String("kind", d.Kind))
				}

				id := strconv.Itoa(i + 1)
				if record.ApplicantID != nil {
					id = *record.ApplicantID
				}
				_ = w.Write([]string{
					id,
					p.Decision(),
					strconv.FormatFloat(p.Probability, 'f', 4, 64),
					strconv.FormatBool(p.FraudFlag),
					strconv.FormatBool(p.FirstTimeApplicant),
				})
			}
			w.Flush()
			if err := w.Error(); err != nil {
				logger.Fatal(ctx, "could not write predictions", zap.Error(err))
			}
		},
	}

	cmd.Flags().StringP("input", "i", "-", "Applicant CSV path, - reads stdin")

	return cmd
}
