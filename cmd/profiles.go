package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cv-job-matcher/internal/logger"
	"cv-job-matcher/internal/profiles"
	"cv-job-matcher/internal/store"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the saved profile versions for a user",
	Run: func(cmd *cobra.Command, _ []string) {
		listProfiles(cmd)
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.Flags().StringP("user", "u", "", "user id to list profiles for")
	viper.BindPFlag("user-id", profilesCmd.Flags().Lookup("user"))
}

func listProfiles(_ *cobra.Command) {
	ctx := context.Background()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.UserID == "" {
		log.Fatal("a user id is required", zap.String("hint", "set --user or the 'user-id' key in the configuration file"))
	}

	db, err := store.Open(config.StorePath)
	if err != nil {
		log.Fatal("opening the store", zap.Error(err), zap.String("path", config.StorePath))
	}
	defer db.Close()

	records, err := profiles.New(db.Collection(collectionProfiles), log).ListForUser(ctx, config.UserID)
	if err != nil {
		log.Fatal("listing profiles", zap.Error(err))
	}

	if len(records) == 0 {
		log.Info("no profiles found", zap.String("user_id", config.UserID))
		return
	}

	fmt.Printf("Profiles for %s (most recent first):\n", config.UserID)
	for _, record := range records {
		name := "unknown"
		titles := ""
		if record.Profile != nil {
			if record.Profile.FullName != "" {
				name = record.Profile.FullName
			}
			titles = strings.Join(record.Profile.JobTitles, ", ")
		}

		fmt.Printf("  %s  %s  %s", record.ProfileID, record.CreatedAt, name)
		if titles != "" {
			fmt.Printf("  (%s)", titles)
		}
		fmt.Println()
	}
}
