package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/answers/internal/answer"
	"github.com/sells-group/answers/internal/cite"
	"github.com/sells-group/answers/internal/model"
)

var (
	askNoCache  bool
	askBudgetMS int
	askContext  string
	askStream   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and print the cited result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		question := strings.Join(args, " ")
		opts := answer.Options{
			BypassCache: askNoCache,
			Budget:      time.Duration(askBudgetMS) * time.Millisecond,
		}

		var res *model.FinalAnswer
		if askStream {
			res, err = env.Pipeline.AnswerStream(cmd.Context(), question, askContext, opts, func(s string) {
				fmt.Print(s)
			})
			fmt.Println()
		} else {
			res, err = env.Pipeline.Answer(cmd.Context(), question, askContext, opts)
		}
		if err != nil {
			return err
		}

		fmt.Println(res.AnnotatedText)
		if sources := cite.RenderSources(res.Citations); sources != "" {
			fmt.Println()
			fmt.Print(sources)
		}
		fmt.Printf("\nconfidence=%.2f model=%s cache=%s elapsed=%s\n",
			res.ConfidenceScore, res.ModelUsed, res.CacheStatus, res.Elapsed.Round(time.Millisecond))
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass cached answers and retrieval results")
	askCmd.Flags().IntVar(&askBudgetMS, "budget-ms", 0, "retrieval budget in milliseconds (default from config)")
	askCmd.Flags().StringVar(&askContext, "context", "", "extra user context passed to the model")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the draft while it generates")
	rootCmd.AddCommand(askCmd)
}
