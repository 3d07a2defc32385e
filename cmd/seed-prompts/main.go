// Command seed-prompts loads prompt templates from a JSON file into the
// exam_prompts table, replacing existing templates per subject and dropping
// their cache entries. Used to roll out prompt changes without a migration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/database"
	"github.com/abiturprep/abitur-backend/internal/logger"
	"github.com/abiturprep/abitur-backend/internal/model"
	"github.com/abiturprep/abitur-backend/internal/repository"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "prompts.json", "JSON file with an array of prompt templates")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read prompt file")
	}

	var templates []model.PromptTemplate
	if err := json.Unmarshal(raw, &templates); err != nil {
		log.Fatal().Err(err).Msg("Invalid prompt file")
	}
	if len(templates) == 0 {
		log.Fatal().Msg("Prompt file contains no templates")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis is optional here; without it only cache invalidation is skipped
	// and entries age out via TTL.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, skipping cache invalidation")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	promptRepo := repository.NewPromptRepository(pool, rdb)

	for i := range templates {
		tpl := &templates[i]
		if tpl.Subject == "" || tpl.SystemPrompt == "" || tpl.UserPrompt == "" {
			log.Fatal().Int("index", i).Msg("Template is missing subject, system_prompt or user_prompt")
		}
		if err := promptRepo.Upsert(ctx, tpl); err != nil {
			log.Fatal().Err(err).Str("subject", tpl.Subject).Msg("Upsert failed")
		}
		fmt.Printf("Seeded prompt template: %s\n", tpl.Subject)
	}

	fmt.Printf("Done, %d template(s)\n", len(templates))
}
