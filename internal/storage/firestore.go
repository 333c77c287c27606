// Package storage persists deals and reads subscriptions/users from
// Firestore. The deal document ID is the composite "site:originId" key,
// so create-if-absent at the document level is the dedup mechanism — no
// application-side locking.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

const (
	dealsCollection    = "deals"
	keywordsCollection = "keywords"
	usersCollection    = "users"
)

type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// InsertBatch writes records unordered with create-if-absent semantics
// and returns exactly the ones that were new. A duplicate identity is an
// expected silent outcome; anything else is an infrastructure error,
// which is returned alongside whatever did get inserted.
func (c *Client) InsertBatch(ctx context.Context, records []models.DealRecord) ([]models.DealRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	bw := c.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, len(records))
	for i, rec := range records {
		ref := c.client.Collection(dealsCollection).Doc(rec.Key())
		job, err := bw.Create(ref, rec)
		if err != nil {
			slog.Warn("Failed to queue deal insert", "key", rec.Key(), "error", err)
			continue
		}
		jobs[i] = job
	}
	bw.End()

	var inserted []models.DealRecord
	var infraErr error
	duplicates := 0
	for i, job := range jobs {
		if job == nil {
			continue
		}
		if _, err := job.Results(); err != nil {
			if errors.Is(classifyCreateErr(err), models.ErrDealExists) {
				duplicates++
				continue
			}
			infraErr = err
			continue
		}
		inserted = append(inserted, records[i])
	}

	slog.Info("Deal batch persisted", "attempted", len(records), "inserted", len(inserted), "duplicates", duplicates)
	if infraErr != nil {
		return inserted, fmt.Errorf("insert batch: %w", infraErr)
	}
	return inserted, nil
}

// classifyCreateErr maps a BulkWriter create failure onto the domain's
// error taxonomy: a duplicate identity becomes ErrDealExists (the
// expected dedup outcome); anything else passes through as an
// infrastructure error.
func classifyCreateErr(err error) error {
	if status.Code(err) == codes.AlreadyExists {
		return models.ErrDealExists
	}
	return err
}

// GetDealByKey retrieves a deal by its "site:originId" key, nil when absent.
func (c *Client) GetDealByKey(ctx context.Context, key string) (*models.DealRecord, error) {
	doc, err := c.client.Collection(dealsCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deal %s: %w", key, err)
	}

	var deal models.DealRecord
	if err := doc.DataTo(&deal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal data: %w", err)
	}
	return &deal, nil
}

// ListRecent returns the newest persisted deals, newest first.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]models.DealRecord, error) {
	iter := c.client.Collection(dealsCollection).
		OrderBy("postedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var deals []models.DealRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate deals: %w", err)
		}
		var deal models.DealRecord
		if err := doc.DataTo(&deal); err != nil {
			slog.Warn("Skipping malformed deal document", "id", doc.Ref.ID, "error", err)
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

// ActiveSubscriptions returns every keyword registration with isActive true.
func (c *Client) ActiveSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	iter := c.client.Collection(keywordsCollection).
		Where("isActive", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var subs []models.Subscription
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
		}
		var sub models.Subscription
		if err := doc.DataTo(&sub); err != nil {
			slog.Warn("Skipping malformed subscription document", "id", doc.Ref.ID, "error", err)
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// UsersByIDs resolves users for notification delivery, keyed by user id.
// Unknown ids are simply absent from the result.
func (c *Client) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, c.client.Collection(usersCollection).Doc(id))
	}

	docs, err := c.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	users := make(map[string]models.User, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var user models.User
		if err := doc.DataTo(&user); err != nil {
			slog.Warn("Skipping malformed user document", "id", doc.Ref.ID, "error", err)
			continue
		}
		user.ID = doc.Ref.ID
		users[user.ID] = user
	}
	return users, nil
}

// TrimOldDeals deletes the oldest deals (by postedAt) once the
// collection exceeds maxDeals. Expiry is housekeeping, not pipeline
// correctness, so callers treat failures as warnings.
func (c *Client) TrimOldDeals(ctx context.Context, maxDeals int) error {
	collectionRef := c.client.Collection(dealsCollection)

	countSnapshot, err := collectionRef.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get deal count for trimming: %w", err)
	}

	countValue, ok := countSnapshot["all"]
	if !ok {
		return fmt.Errorf("count aggregation result for trimming was invalid: 'all' key missing")
	}
	pbValue, ok := countValue.(*firestorepb.Value)
	if !ok {
		return fmt.Errorf("count aggregation result for trimming has unexpected type %T", countValue)
	}
	currentCount := int(pbValue.GetIntegerValue())

	if currentCount <= maxDeals {
		return nil
	}

	numToDelete := currentCount - maxDeals
	slog.Info("Trimming old deals", "current", currentCount, "max", maxDeals, "deleting", numToDelete)

	iter := collectionRef.
		OrderBy("postedAt", firestore.Asc).
		Limit(numToDelete).
		Documents(ctx)
	defer iter.Stop()

	bulkWriter := c.client.BulkWriter(ctx)
	defer bulkWriter.End()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate deals for trimming: %w", err)
		}
		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			slog.Warn("Error queueing deal delete", "id", doc.Ref.ID, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		bulkWriter.Flush()
		slog.Info("Flushed deal deletions", "count", deleted)
	}
	return nil
}
