package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jun/formdesk/internal/model"
)

// sortKeyTimeFormat is fixed-width so that byte order matches time order.
// RFC3339Nano drops trailing zeros, which breaks ordering at whole-second
// boundaries ("...00Z" vs "...00.5Z").
const sortKeyTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// sortKey builds the range key for a record. The document ID suffix keeps
// two saves in the same instant from colliding.
func sortKey(createdAt time.Time, docID string) string {
	return fmt.Sprintf("%s#%s", createdAt.UTC().Format(sortKeyTimeFormat), docID)
}

// documentItem is the DynamoDB representation of a saved record. The table
// is keyed by owner prefix with a time-ordered sort key so that Query can
// return newest-first natively.
type documentItem struct {
	OwnerPath string    `dynamodbav:"owner_path"`
	SortKey   string    `dynamodbav:"sk"`
	ID        string    `dynamodbav:"id"`
	Title     string    `dynamodbav:"title"`
	Content   string    `dynamodbav:"content"`
	OwnerID   string    `dynamodbav:"owner_id"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// DynamoStore implements Store on DynamoDB.
// If client is nil, it uses an in-memory map (for tests and dev mode).
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string

	// Fallback for tests
	mu      sync.RWMutex
	records map[string]model.SavedDocumentRecord
}

// NewDynamoStore creates a new DynamoStore.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		records:   make(map[string]model.SavedDocumentRecord),
	}
}

// Put persists a record under a time-ordered sort key.
func (s *DynamoStore) Put(ctx context.Context, path string, rec model.SavedDocumentRecord) error {
	ownerID, docID, err := splitPath(path)
	if err != nil {
		return err
	}

	if s.client == nil {
		s.mu.Lock()
		s.records[path] = rec
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(documentItem{
		OwnerPath: OwnerPrefix(ownerID),
		SortKey:   sortKey(rec.CreatedAt, docID),
		ID:        rec.ID,
		Title:     rec.Title,
		Content:   rec.Content,
		OwnerID:   rec.OwnerID,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save record to DynamoDB: %w", err)
	}
	return nil
}

// Query lists up to limit records under ownerPrefix, newest-first.
func (s *DynamoStore) Query(ctx context.Context, ownerPrefix string, limit int) ([]model.SavedDocumentRecord, error) {
	if s.client == nil {
		return s.queryMap(ownerPrefix, limit)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("owner_path = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: ownerPrefix},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]model.SavedDocumentRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item documentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, model.SavedDocumentRecord{
			ID:        item.ID,
			Title:     item.Title,
			Content:   item.Content,
			OwnerID:   item.OwnerID,
			CreatedAt: item.CreatedAt,
		})
	}
	return records, nil
}

func (s *DynamoStore) queryMap(ownerPrefix string, limit int) ([]model.SavedDocumentRecord, error) {
	s.mu.RLock()
	var records []model.SavedDocumentRecord
	for path, rec := range s.records {
		if strings.HasPrefix(path, ownerPrefix+"/") {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
