package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mamiri/firedump/internal/config"
	"github.com/mamiri/firedump/internal/database"
	"github.com/mamiri/firedump/internal/dump"
)

type options struct {
	projectID  string
	databaseID string
	maxDepth   int
	noLimit    bool
}

var longDescription = `Dump Firestore data recursively to standard output.

Connects with a Firebase Admin SDK service account key, walks every
collection and subcollection from the root, and prints each document as
indented JSON. Generate the key file from the Firebase Console under
Project Settings > Service accounts.`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "firedump <service-account-key.json>",
		Short:         "Dump Firestore data recursively to standard output",
		Long:          longDescription,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.projectID, "project-id", "", "Firebase project ID (optional, usually inferred from the key file)")
	cmd.Flags().StringVar(&opts.databaseID, "database-id", "", "Firestore database ID (defaults to FIRESTORE_DATABASE_ID or \"(default)\")")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", config.DefaultMaxDepth, "maximum recursion depth for subcollections")
	cmd.Flags().BoolVar(&opts.noLimit, "no-limit", false, "fetch all documents in each collection, overriding the default limit of 5")

	return cmd
}

func run(ctx context.Context, keyFile string, opts options) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	fmt.Println("--- Starting Firestore Data Dump ---")
	fmt.Printf("\nLoading service account key from: %s\n", keyFile)

	cfg, err := config.Load(ctx, keyFile, opts.projectID, opts.databaseID)
	if err != nil {
		return err
	}
	cfg.MaxDepth = opts.maxDepth
	cfg.NoLimit = opts.noLimit

	if opts.projectID != "" {
		fmt.Printf("Using override project ID: %s\n", opts.projectID)
	}

	client, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("--- Successfully initialized Firestore client for project: %s ---\n", cfg.ProjectID)

	ser := dump.NewSerializer(log.New(os.Stderr, "", 0))
	walker := dump.NewWalker(client, os.Stdout, ser, dump.Options{
		MaxDepth:   cfg.MaxDepth,
		FetchLimit: cfg.FetchLimit,
		NoLimit:    cfg.NoLimit,
	})

	return walker.Run(ctx)
}
