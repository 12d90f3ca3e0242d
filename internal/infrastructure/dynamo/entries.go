package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/waitlist-api/internal/domain"
)

// EntryRepo provides typed DynamoDB operations for the waitlist entries table.
type EntryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEntryRepo(client *dynamodb.Client, tableName string) *EntryRepo {
	return &EntryRepo{client: client, tableName: tableName}
}

// Create inserts a new entry. The condition on the email partition key is
// the sole guard against duplicate-insert races: when two concurrent joins
// pass the existence check, the second PutItem fails here and is reported
// as domain.ErrConflict rather than a hard error.
func (r *EntryRepo) Create(ctx context.Context, e *domain.WaitlistEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("email already on waitlist: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// Put overwrites an existing entry. Used for status transitions
// (reactivation, unsubscribe) where the email key is already known to exist.
func (r *EntryRepo) Put(ctx context.Context, e *domain.WaitlistEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *EntryRepo) GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.WaitlistEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) GetByID(ctx context.Context, entryID string) (*domain.WaitlistEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("entry_id-index"),
		KeyConditionExpression: aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{"#a": fieldEntryID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: entryID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.WaitlistEntry
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// HardDelete removes an entry permanently. The admin surface is the only
// caller; the public API never deletes.
func (r *EntryRepo) HardDelete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// Scan returns every entry in the table, following pagination until
// exhausted. Listing order and filtering are applied in the service layer;
// the waitlist is small enough that a full scan is the pragmatic choice.
func (r *EntryRepo) Scan(ctx context.Context) ([]domain.WaitlistEntry, error) {
	var entries []domain.WaitlistEntry
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.WaitlistEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return entries, nil
}

// CountActiveAt counts non-unsubscribed entries created at or before t.
// The join flow uses this to compute the caller's waitlist position.
func (r *EntryRepo) CountActiveAt(ctx context.Context, t time.Time) (int, error) {
	boundary, err := attributevalue.Marshal(t)
	if err != nil {
		return 0, err
	}
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			Select:           types.SelectCount,
			FilterExpression: aws.String("#s <> :u AND #c <= :t"),
			ExpressionAttributeNames: map[string]string{
				"#s": fieldStatus,
				"#c": fieldCreatedAt,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: domain.StatusUnsubscribed},
				":t": boundary,
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return total, nil
}
