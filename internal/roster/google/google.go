// Package google reads the household roster and the shared tag list
// from a Google spreadsheet. Some households keep the member list in a
// sheet they already edit by hand; this adapter makes that sheet the
// source of truth.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"buckets/internal/catalog"
	"buckets/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	membersSheet  string
	tagsSheet     string
}

var (
	_ catalog.RosterReader = (*Client)(nil)
	_ catalog.TagReader    = (*Client)(nil)
)

// New creates a Sheets-backed roster client using service account
// credentials from the environment: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, membersSheet, tagsSheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if membersSheet == "" {
		membersSheet = "Members"
	}
	if tagsSheet == "" {
		tagsSheet = "Tags"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		membersSheet:  membersSheet,
		tagsSheet:     tagsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListMembers reads the members sheet. Expected columns: ID, Name,
// Color, Avatar, with a header row.
func (c *Client) ListMembers(ctx context.Context) ([]core.Member, error) {
	rng := fmt.Sprintf("%s!A:D", c.membersSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read members sheet %s: %w", c.membersSheet, err)
	}

	members := parseMembers(resp.Values)
	slog.DebugContext(ctx, "Loaded household roster from spreadsheet",
		"sheet", c.membersSheet, "members", len(members))
	return members, nil
}

// ListTags reads the first column of the tags sheet.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.tagsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read tags sheet %s: %w", c.tagsSheet, err)
	}
	return parseTags(resp.Values), nil
}
