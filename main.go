package main

import (
	"log"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"dpreport/commands"
	"dpreport/handlers"
	"dpreport/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	app := pocketbase.New()

	defaults := services.DefaultDocumentConfig()
	gen := services.NewGenerator(logger, services.SofficeConverter{})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if _, err := os.Stat("./static"); err == nil {
			se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))
		}

		se.Router.BindFunc(handlers.RequestLogger(logger))

		se.Router.GET("/", handlers.HandleIndex(defaults))

		// ── Report generation ────────────────────────────────────
		se.Router.POST("/reports/docx", handlers.HandleReportDOCX(gen, defaults))
		se.Router.POST("/reports/pdf", handlers.HandleReportPDF(gen, defaults))

		// ── Final PDF ────────────────────────────────────────────
		se.Router.POST("/reports/merge", handlers.HandleMerge(gen, defaults))
		se.Router.POST("/reports/build", handlers.HandleBuild(gen, defaults))

		return se.Next()
	})

	commands.Register(app.RootCmd, logger)

	if err := app.Start(); err != nil {
		logger.Fatal("app exited", zap.Error(err))
	}
}
