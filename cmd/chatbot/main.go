package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	appconfig "github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/embedding"
	"github.com/careflow/hospital-chatbot/internal/retriever"
	srv "github.com/careflow/hospital-chatbot/internal/server"
	"github.com/careflow/hospital-chatbot/provider"
)

func main() {
	var root = &cobra.Command{Use: "chatbot"}

	var cfgPath string
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveAddr == "" {
				serveAddr = os.Getenv("CHATBOT_HTTP_ADDR")
			}
			return srv.Run(serveAddr, cfgPath)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")

	var reindex = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the knowledge index artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			var emb embedding.Embedder = embedding.NewTFIDF()
			if cfg.Knowledge.Embedder == "groq" {
				llm, err := provider.NewProvider(provider.Groq, cfg.Providers.Groq)
				if err != nil {
					return fmt.Errorf("remote embedder requires credentials: %w", err)
				}
				emb = embedding.NewRemote(llm)
			}
			ret := retriever.New(cfg.Knowledge, emb, nil)
			if err := ret.Rebuild(context.Background()); err != nil {
				return err
			}
			log.Printf("artifacts written: %s, %s", cfg.Knowledge.IndexFile, cfg.Knowledge.StoreFile)
			return nil
		},
	}

	root.AddCommand(serve, reindex)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
