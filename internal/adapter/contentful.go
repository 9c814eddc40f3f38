package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pylin/shelflife/internal/config"
	"github.com/pylin/shelflife/models"
)

// managementTokenPlaceholder is the value shipped in the sample configuration.
// A token equal to it is treated the same as no token at all.
const managementTokenPlaceholder = "CFPAT-YOUR_MANAGEMENT_TOKEN_HERE"

type contentfulAdapter struct {
	delivery   *resty.Client
	management *resty.Client

	spaceID         string
	environment     string
	managementToken string
}

// NewContentfulAdapter builds a RemoteStore backed by the Contentful delivery
// and management APIs. Read and write traffic go to separate hosts with
// separate credentials; only the write credential is optional.
func NewContentfulAdapter(cfg config.Remote) RemoteStore {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	delivery := resty.New().
		SetBaseURL(strings.TrimRight(cfg.DeliveryURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetAuthToken(cfg.DeliveryToken)

	management := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ManagementURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetAuthToken(cfg.ManagementToken)

	return &contentfulAdapter{
		delivery:        delivery,
		management:      management,
		spaceID:         cfg.SpaceID,
		environment:     cfg.Environment,
		managementToken: strings.TrimSpace(cfg.ManagementToken),
	}
}

// entrySys is the sys block common to delivery and management entries.
type entrySys struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

type deliveryEntry struct {
	Sys    entrySys       `json:"sys"`
	Fields map[string]any `json:"fields"`
}

type deliveryListResponse struct {
	Items []deliveryEntry `json:"items"`
}

type managementEntry struct {
	Sys    entrySys                  `json:"sys"`
	Fields map[string]map[string]any `json:"fields"`
}

func (c *contentfulAdapter) List(ctx context.Context, kind models.Kind) ([]models.Entity, error) {
	resp, err := c.delivery.R().
		SetContext(ctx).
		SetQueryParam("content_type", contentTypeFor(kind)).
		Get(c.entriesPath())
	if err != nil {
		return nil, fmt.Errorf("list %s entries request: %w", kind, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var list deliveryListResponse
	if err = json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode %s entries response: %w", kind, err)
	}

	entities := make([]models.Entity, 0, len(list.Items))
	for _, item := range list.Items {
		entities = append(entities, entityFromFields(kind, item.Sys.ID, item.Fields))
	}
	return entities, nil
}

func (c *contentfulAdapter) Create(ctx context.Context, kind models.Kind, entity models.Entity) (string, error) {
	if err := c.writeReady(); err != nil {
		return "", err
	}

	body := map[string]any{"fields": localizeFields(remoteFields(kind, entity))}

	resp, err := c.management.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Contentful-Content-Type", contentTypeFor(kind)).
		SetBody(body).
		Post(c.entriesPath())
	if err != nil {
		return "", fmt.Errorf("create %s entry request: %w", kind, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var created managementEntry
	if err = json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("decode created %s entry: %w", kind, err)
	}

	if err = c.publish(ctx, created.Sys.ID, created.Sys.Version); err != nil {
		return "", err
	}
	return created.Sys.ID, nil
}

func (c *contentfulAdapter) Update(ctx context.Context, kind models.Kind, remoteID string, entity models.Entity) error {
	if err := c.writeReady(); err != nil {
		return err
	}

	// The management API requires the current entry version on every write.
	current, err := c.getManagementEntry(ctx, remoteID)
	if err != nil {
		return err
	}

	body := map[string]any{"fields": localizeFields(remoteFields(kind, entity))}

	resp, err := c.management.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Contentful-Version", fmt.Sprintf("%d", current.Sys.Version)).
		SetBody(body).
		Put(c.entryPath(remoteID))
	if err != nil {
		return fmt.Errorf("update %s entry %s request: %w", kind, remoteID, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	var updated managementEntry
	if err = json.Unmarshal(resp.Body(), &updated); err != nil {
		return fmt.Errorf("decode updated %s entry: %w", kind, err)
	}

	return c.publish(ctx, remoteID, updated.Sys.Version)
}

func (c *contentfulAdapter) Delete(ctx context.Context, kind models.Kind, remoteID string) error {
	if err := c.writeReady(); err != nil {
		return err
	}

	// Unpublish first; an entry that was never published answers 400 or 404
	// here, which is fine.
	resp, err := c.management.R().
		SetContext(ctx).
		Delete(c.entryPath(remoteID) + "/published")
	if err != nil {
		return fmt.Errorf("unpublish %s entry %s request: %w", kind, remoteID, err)
	}
	if code := resp.StatusCode(); code >= http.StatusMultipleChoices &&
		code != http.StatusBadRequest && code != http.StatusNotFound {
		return mapHTTPError(resp)
	}

	resp, err = c.management.R().
		SetContext(ctx).
		Delete(c.entryPath(remoteID))
	if err != nil {
		return fmt.Errorf("delete %s entry %s request: %w", kind, remoteID, err)
	}
	return mapHTTPError(resp)
}

func (c *contentfulAdapter) Ping(ctx context.Context) error {
	resp, err := c.delivery.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/spaces/%s", c.spaceID))
	if err != nil {
		return fmt.Errorf("ping space request: %w", err)
	}
	return mapHTTPError(resp)
}

// writeReady reports whether write calls may go out at all. Short-circuiting
// here keeps a misconfigured client from hammering the management API.
func (c *contentfulAdapter) writeReady() error {
	if c.managementToken == "" || c.managementToken == managementTokenPlaceholder {
		return ErrWriteUnavailable
	}
	return nil
}

func (c *contentfulAdapter) getManagementEntry(ctx context.Context, remoteID string) (managementEntry, error) {
	resp, err := c.management.R().
		SetContext(ctx).
		Get(c.entryPath(remoteID))
	if err != nil {
		return managementEntry{}, fmt.Errorf("get entry %s request: %w", remoteID, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return managementEntry{}, err
	}

	var entry managementEntry
	if err = json.Unmarshal(resp.Body(), &entry); err != nil {
		return managementEntry{}, fmt.Errorf("decode entry %s: %w", remoteID, err)
	}
	return entry, nil
}

// publish makes a draft entry visible to the delivery API. Entries left in
// draft would silently vanish from the next bootstrap.
func (c *contentfulAdapter) publish(ctx context.Context, remoteID string, version int64) error {
	resp, err := c.management.R().
		SetContext(ctx).
		SetHeader("X-Contentful-Version", fmt.Sprintf("%d", version)).
		Put(c.entryPath(remoteID) + "/published")
	if err != nil {
		return fmt.Errorf("publish entry %s request: %w", remoteID, err)
	}
	return mapHTTPError(resp)
}

func (c *contentfulAdapter) entriesPath() string {
	return fmt.Sprintf("/spaces/%s/environments/%s/entries", c.spaceID, c.environment)
}

func (c *contentfulAdapter) entryPath(remoteID string) string {
	return c.entriesPath() + "/" + remoteID
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrRemoteNotFound, body)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, body)
	default:
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("cms http %d: %s", resp.StatusCode(), body)
	}
}
