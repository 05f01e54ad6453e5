// Package gcp builds the client options shared by every Google Cloud and
// Workspace client the marketplace creates.
package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
)

// ClientOptions prefers inline credentials JSON over a credentials file. With
// neither set the clients fall back to application default credentials.
func ClientOptions(credentialsJSON, credentialsFile string) []option.ClientOption {
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentialsJSON))}
	case strings.TrimSpace(credentialsFile) != "":
		return []option.ClientOption{option.WithCredentialsFile(strings.TrimSpace(credentialsFile))}
	default:
		return nil
	}
}

// CloudOptions resolves options for Pub/Sub and BigQuery.
func CloudOptions(cfg config.GCPConfig) []option.ClientOption {
	return ClientOptions(cfg.CredentialsJSON, cfg.ApplicationCredentials)
}

// WorkspaceOptions resolves options for the Gmail and Drive clients. They use
// the Google section first and fall back to the project credentials.
func WorkspaceOptions(google config.GoogleConfig, cloud config.GCPConfig) []option.ClientOption {
	if opts := ClientOptions(google.CredentialsJSON, google.CredentialsFile); len(opts) > 0 {
		return opts
	}
	return CloudOptions(cloud)
}
