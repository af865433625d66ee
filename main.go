package main

import (
	"context"
	"net/http"

	"bitrix_material_bot/internal/app"
	"bitrix_material_bot/internal/bitrix"
	"bitrix_material_bot/internal/catalog"
	"bitrix_material_bot/internal/webhook"

	"github.com/rs/zerolog/log"
)

func main() {
	app.SetupEnvironment()
	cfg := app.LoadConfig()

	ctx := context.Background()
	client := bitrix.NewClient(cfg.FolderListURL, cfg.IncomingURL)

	// One blocking load before serving traffic; the table is read-only for
	// the rest of the process lifetime.
	table := catalog.Load(ctx, client, cfg.FolderID, cfg.FileName)
	if len(table) == 0 {
		log.Warn().Msg("Material table is empty; all lookups will miss")
	}

	handler := webhook.NewHandler(table, client, cfg.BotKey)

	mux := http.NewServeMux()
	mux.Handle("POST /bitrix-webhook", handler)

	log.Info().
		Str("addr", cfg.ListenAddr).
		Int("rows", len(table)).
		Msg("Starting Bitrix24 webhook server")

	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
