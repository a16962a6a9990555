package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

const (
	// DefaultDatabaseID is Firestore's default database name.
	DefaultDatabaseID = "(default)"

	// DefaultFetchLimit caps how many documents are fetched per collection
	// unless --no-limit is given.
	DefaultFetchLimit = 5

	// DefaultMaxDepth is the default subcollection recursion ceiling.
	DefaultMaxDepth = 10

	firestoreScope = "https://www.googleapis.com/auth/datastore"
)

// Config carries everything a dump run needs: the raw service account key,
// the resolved project and database IDs, and the traversal settings.
type Config struct {
	KeyFile    string
	KeyJSON    []byte
	ProjectID  string
	DatabaseID string
	MaxDepth   int
	NoLimit    bool
	FetchLimit int
}

// Load reads and validates the service account key file and resolves the
// project and database IDs. The project resolution order is the --project-id
// override, then the key file, then GCP_PROJECT_ID; the database resolution
// order is the --database-id override, then FIRESTORE_DATABASE_ID, then
// "(default)".
func Load(ctx context.Context, keyFile, projectOverride, databaseOverride string) (*Config, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file %q: %w", keyFile, err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("service account key file %q is not valid JSON: %w", keyFile, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, firestoreScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %q: %w", keyFile, err)
	}

	projectID := projectOverride
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		projectID = os.Getenv("GCP_PROJECT_ID")
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project ID in key file %q; pass --project-id or set GCP_PROJECT_ID", keyFile)
	}

	databaseID := databaseOverride
	if databaseID == "" {
		databaseID = os.Getenv("FIRESTORE_DATABASE_ID")
	}
	if databaseID == "" {
		databaseID = DefaultDatabaseID
	}

	return &Config{
		KeyFile:    keyFile,
		KeyJSON:    data,
		ProjectID:  projectID,
		DatabaseID: databaseID,
		MaxDepth:   DefaultMaxDepth,
		FetchLimit: DefaultFetchLimit,
	}, nil
}
