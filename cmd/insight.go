package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datadeck-cli/internal/ai"
	"github.com/KaramelBytes/datadeck-cli/internal/insight"
	"github.com/KaramelBytes/datadeck-cli/internal/loader"
	"github.com/KaramelBytes/datadeck-cli/internal/profile"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

// aiFlags select the provider and sampling knobs for model commands.
type aiFlags struct {
	provider    string
	model       string
	maxTokens   int
	temperature float64
	promptLimit int
}

func (a *aiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.provider, "provider", "", "AI provider: "+strings.Join(ai.Providers(), "|")+" (default from config)")
	cmd.Flags().StringVar(&a.model, "model", "", "model name (default from config or provider)")
	cmd.Flags().IntVar(&a.maxTokens, "max-tokens", 0, "max completion tokens (0 = preset)")
	cmd.Flags().Float64Var(&a.temperature, "temperature", 0, "sampling temperature (0 = preset)")
	cmd.Flags().IntVar(&a.promptLimit, "prompt-limit", 0, "token budget for dataset context (0 = config)")
}

func (a *aiFlags) service() (*insight.Service, string, error) {
	provider := selectProvider(cfg, a.provider)
	rt, err := buildRuntime(cfg, provider)
	if err != nil {
		return nil, "", err
	}
	sc := insight.Config{
		Model:            selectModel(cfg, provider, a.model),
		MaxTokens:        a.maxTokens,
		Temperature:      a.temperature,
		PromptTokenLimit: a.promptLimit,
		Logger:           logger,
	}
	if cfg != nil {
		if sc.MaxTokens == 0 {
			sc.MaxTokens = cfg.MaxTokens
		}
		if sc.Temperature == 0 {
			sc.Temperature = cfg.Temperature
		}
		if sc.PromptTokenLimit == 0 {
			sc.PromptTokenLimit = cfg.PromptTokenLimit
		}
	}
	logger.Debug("AI runtime ready", zap.String("provider", provider), zap.String("model", sc.Model))
	return insight.NewService(rt, sc), sc.Model, nil
}

// datasetContext loads each file and joins their profiles.
func datasetContext(ctx context.Context, lf *loadFlags, paths []string, workers int) (string, []insight.File, error) {
	opt, err := lf.options()
	if err != nil {
		return "", nil, err
	}
	sets, err := loader.LoadAll(ctx, paths, opt, workers)
	if err != nil {
		return "", nil, err
	}
	popt := profile.DefaultOptions()
	popt.SampleRows = 3
	parts := make([]string, 0, len(sets))
	files := make([]insight.File, 0, len(paths))
	for i, ds := range sets {
		parts = append(parts, profile.Profile(ds, popt).Markdown())
		name, kind, size := fileInfo(paths[i])
		files = append(files, insight.File{Name: name, Type: kind, Size: size})
	}
	return strings.Join(parts, "\n"), files, nil
}

var (
	inLoad    loadFlags
	inAI      aiFlags
	inCommand string
	inJSON    bool
	inOutput  string
)

var insightCmd = &cobra.Command{
	Use:   "insight <files...>",
	Short: "Ask an AI model for analysis, insights and recommendations about datasets",
	Example: `  datadeck insight sales.csv --command "Which regions are underperforming?"
  datadeck insight q1.xlsx q2.xlsx --provider gemini --json -o insight.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := loader.ExpandPaths(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		dataCtx, meta, err := datasetContext(cmd.Context(), &inLoad, files, 4)
		if err != nil {
			return err
		}
		svc, _, err := inAI.service()
		if err != nil {
			return err
		}
		resp, err := svc.Process(cmd.Context(), insight.Request{
			Command:      inCommand,
			Files:        meta,
			AnalysisType: insight.AnalysisDocument,
		}, dataCtx)
		if err != nil {
			return err
		}

		var out []byte
		if inJSON {
			b, err := utils.PrettyJSON(resp)
			if err != nil {
				return err
			}
			out = append(b, '\n')
		} else {
			out = []byte(resp.Markdown())
		}
		return writeOrPrint(cmd.OutOrStdout(), inOutput, out)
	},
}

var (
	chatLoad    loadFlags
	chatAI      aiFlags
	chatMessage string
	chatStream  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Chat with an AI assistant about a dataset",
	Long: `Start an interactive chat. When a data file is given, its profile is shared with the assistant.
Type "exit" or "quit" (or send EOF) to leave. Use --message for a single question.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dataCtx string
		if len(args) == 1 {
			c, _, err := datasetContext(cmd.Context(), &chatLoad, args, 1)
			if err != nil {
				return err
			}
			dataCtx = c
		}
		svc, _, err := chatAI.service()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if chatMessage != "" {
			_, err := ask(cmd.Context(), svc, out, nil, chatMessage, dataCtx)
			return err
		}

		fmt.Fprintln(out, "DataDeck assistant. Type 'exit' to quit.")
		var history []ai.Message
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return scanner.Err()
			}
			q := strings.TrimSpace(scanner.Text())
			if q == "" {
				continue
			}
			if q == "exit" || q == "quit" {
				return nil
			}
			answer, err := ask(cmd.Context(), svc, out, history, q, dataCtx)
			if err != nil {
				// keep the session alive on remote failures
				fmt.Fprintln(out, "✗ Error:", err)
				continue
			}
			history = append(history,
				ai.Message{Role: "user", Content: q},
				ai.Message{Role: "assistant", Content: answer},
			)
		}
	},
}

func ask(ctx context.Context, svc *insight.Service, out io.Writer, history []ai.Message, q, dataCtx string) (string, error) {
	var (
		onDelta  func(string)
		streamed bool
	)
	if chatStream {
		onDelta = func(d string) {
			streamed = true
			fmt.Fprint(out, d)
		}
	}
	resp, err := svc.Chat(ctx, history, q, dataCtx, onDelta)
	if err != nil {
		return "", err
	}
	// non-streaming runtimes ignore onDelta
	if !streamed {
		fmt.Fprint(out, resp.Analysis)
	}
	fmt.Fprintln(out)
	return resp.Analysis, nil
}

func init() {
	rootCmd.AddCommand(insightCmd, chatCmd)

	inLoad.register(insightCmd)
	inAI.register(insightCmd)
	insightCmd.Flags().StringVar(&inCommand, "command", "", "what to ask about the data (default: a general analysis)")
	insightCmd.Flags().BoolVar(&inJSON, "json", false, "print the structured response as JSON")
	insightCmd.Flags().StringVarP(&inOutput, "output", "o", "", "write the response to a file")

	chatLoad.register(chatCmd)
	chatAI.register(chatCmd)
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "ask a single question and exit")
	chatCmd.Flags().BoolVar(&chatStream, "stream", true, "stream the answer when the provider supports it")
}
