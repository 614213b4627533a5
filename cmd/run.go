package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cv-job-matcher/internal/ai"
	"cv-job-matcher/internal/ai/gemini"
	"cv-job-matcher/internal/analysiscache"
	"cv-job-matcher/internal/export"
	"cv-job-matcher/internal/ingest"
	"cv-job-matcher/internal/library"
	"cv-job-matcher/internal/logger"
	"cv-job-matcher/internal/pipeline"
	"cv-job-matcher/internal/profiles"
	"cv-job-matcher/internal/secrets"
	"cv-job-matcher/internal/serpapi"
	"cv-job-matcher/internal/store"
)

const (
	PromptShowReport   = "Show report"
	PromptExportToFile = "Export to file"
	PromptExit         = "Exit"
)

// Store collections. The job library is shared across every user; the
// other two are keyed per user or per profile inside their records.
const (
	collectionJobs     = "global_raw_jobs"
	collectionAnalyses = "user_job_analyses"
	collectionProfiles = "candidate_profiles"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowReport, PromptExportToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full CV to job-matches pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("cv", "c", "", "path to a CV file or a folder of CV documents")
	runCmd.Flags().StringP("user", "u", "", "user id the run is attributed to")
	runCmd.Flags().StringP("role", "r", "", "optional role hint for the job search")
	runCmd.Flags().StringP("location", "l", "", "override the search location")
	runCmd.Flags().StringP("profile", "p", "", "reuse a previously saved profile id instead of parsing a cv")
	runCmd.Flags().BoolP("auto-approve", "y", false, "export results without asking and exit")

	viper.BindPFlag("cv-path", runCmd.Flags().Lookup("cv"))
	viper.BindPFlag("user-id", runCmd.Flags().Lookup("user"))
	viper.BindPFlag("role", runCmd.Flags().Lookup("role"))
	viper.BindPFlag("location", runCmd.Flags().Lookup("location"))
	viper.BindPFlag("profile-id", runCmd.Flags().Lookup("profile"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting "+app, zap.String("version", version))

	if config == nil {
		log.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.UserID == "" {
		log.Fatal("a user id is required", zap.String("hint", "set --user or the 'user-id' key in the configuration file"))
	}
	if config.CVPath == "" && config.ProfileID == "" {
		log.Fatal("nothing to work from", zap.String("hint", "set --cv to parse a cv or --profile to reuse a saved profile"))
	}

	db, err := store.Open(config.StorePath)
	if err != nil {
		log.Fatal("opening the store", zap.Error(err), zap.String("path", config.StorePath))
	}
	defer db.Close()

	deps, err := buildDeps(ctx, config, db, log)
	if err != nil {
		log.Fatal("building pipeline dependencies", zap.Error(err))
	}

	p, err := pipeline.New(*deps)
	if err != nil {
		log.Fatal("building the pipeline", zap.Error(err))
	}

	var rawCV string
	if config.CVPath != "" {
		rawCV, err = ingest.Load(config.CVPath, log)
		if err != nil {
			log.Fatal("reading the cv", zap.Error(err), zap.String("path", config.CVPath))
		}
	}

	state, err := p.Run(ctx, &pipeline.RunConfig{
		RawCV:     rawCV,
		UserID:    config.UserID,
		Role:      config.Role,
		Location:  config.Location,
		ProfileID: config.ProfileID,
	})
	if err != nil {
		log.Fatal("pipeline run failed", zap.Error(err))
	}

	if state.Analyses.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no job matches found"))
		return
	}

	log.Info("pipeline finished",
		zap.String("profile_id", state.ProfileID),
		zap.Int("matches", state.Analyses.Len()),
	)

	exporter := export.New(config.OutputDir, log)
	candidate := candidateName(state)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := exportResults(exporter, candidate, state, log); err != nil {
			log.Fatal("exporting results", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, exporter, candidate, state, log); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, exporter *export.Exporter, candidate string, state *pipeline.State, log *zap.Logger) error {
	switch action {
	case PromptShowReport:
		fmt.Println(export.RenderReport(candidate, state.Analyses))
		return nil
	case PromptExportToFile:
		return exportResults(exporter, candidate, state, log)
	case PromptExit:
		log.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
}

func exportResults(exporter *export.Exporter, candidate string, state *pipeline.State, log *zap.Logger) error {
	jsonPath, err := exporter.WriteJSON(candidate, state.Analyses)
	if err != nil {
		return err
	}

	reportPath, err := exporter.WriteReport(candidate, state.Analyses)
	if err != nil {
		return err
	}

	log.Info("results exported",
		zap.String("json", jsonPath),
		zap.String("report", reportPath),
	)
	return nil
}

// buildDeps assembles every pipeline collaborator: stores, agents and the
// search tool.
func buildDeps(ctx context.Context, config *Config, db *store.DB, log *zap.Logger) (*pipeline.Deps, error) {
	geminiKey, err := secrets.Load(secrets.Source{
		Name:   "gemini api key",
		File:   config.Gemini.APIKeyFile,
		EnvVar: "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	serpKey, err := secrets.Load(secrets.Source{
		Name:   "serpapi api key",
		File:   config.SerpAPI.APIKeyFile,
		EnvVar: "SERPAPI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set serpapi.api-key-file or SERPAPI_API_KEY_FILE)", err)
	}

	extractor, err := buildExtractor(ctx, config.Gemini, geminiKey, log)
	if err != nil {
		return nil, err
	}

	searcher := serpapi.New(serpKey, config.SerpAPI.MaxSearches, log)

	researcher, err := buildResearcher(ctx, config, geminiKey, searcher, log)
	if err != nil {
		return nil, err
	}

	analyst, err := buildAnalyst(ctx, config.Gemini, geminiKey, log)
	if err != nil {
		return nil, err
	}

	return &pipeline.Deps{
		Extractor:  extractor,
		Researcher: researcher,
		Analyst:    analyst,
		Profiles:   profiles.New(db.Collection(collectionProfiles), log),
		Library:    library.New(db.Collection(collectionJobs), log),
		Cache:      analysiscache.New(db.Collection(collectionAnalyses), log),
		Logger:     log,
	}, nil
}

func buildExtractor(ctx context.Context, cfg *GeminiConfig, apiKey string, log *zap.Logger) (ai.Extractor, error) {
	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.ParseModel)
	if err != nil {
		return nil, fmt.Errorf("building the cv extractor: %w", err)
	}

	agentLog := logger.WithAgentFields(log, "gemini", generator.Model())
	return gemini.NewExtractor(generator, cfg.MaxLogLength, agentLog), nil
}

func buildResearcher(ctx context.Context, config *Config, apiKey string, searcher *serpapi.Client, log *zap.Logger) (ai.Researcher, error) {
	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.ResearchModel)
	if err != nil {
		return nil, fmt.Errorf("building the job researcher: %w", err)
	}

	agentLog := logger.WithAgentFields(log, "gemini", generator.Model())
	return gemini.NewResearcher(generator, searcher, config.SerpAPI.Distance, agentLog), nil
}

func buildAnalyst(ctx context.Context, cfg *GeminiConfig, apiKey string, log *zap.Logger) (ai.Analyst, error) {
	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.AnalyseModel)
	if err != nil {
		return nil, fmt.Errorf("building the fit analyst: %w", err)
	}

	agentLog := logger.WithAgentFields(log, "gemini", generator.Model())
	return gemini.NewAnalyst(generator, cfg.MaxLogLength, agentLog), nil
}

func candidateName(state *pipeline.State) string {
	if state.Profile != nil && state.Profile.FullName != "" {
		return state.Profile.FullName
	}
	return "candidate"
}

func fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}
