package db

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/fruitscan/apiserver/config"
	"google.golang.org/api/option"
)

// Open connects to Firestore for the configured project.
func Open(ctx context.Context, cfg config.Config) (*firestore.Client, error) {
	if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
		return nil, errors.New("firestore project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.Firestore.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	}

	return firestore.NewClient(ctx, cfg.Firestore.ProjectID, opts...)
}
