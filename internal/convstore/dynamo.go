package convstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// dynamoAPI is the slice of the DynamoDB client the store uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dynamoItem is the table row. The sort key is "{conversation_id}#{timestamp}"
// so one conversation can hold many exchanges; the plain conversation id is
// kept as its own attribute for the response shape.
type dynamoItem struct {
	UserID         string `dynamodbav:"user_id"`
	SK             string `dynamodbav:"sk"`
	ConversationID string `dynamodbav:"conversation_id"`
	Query          string `dynamodbav:"query"`
	Response       string `dynamodbav:"response"`
	Concept        string `dynamodbav:"concept"`
	Audience       string `dynamodbav:"audience"`
	Timestamp      string `dynamodbav:"timestamp"`
	TTL            int64  `dynamodbav:"ttl"`
}

// DynamoStore implements Store on the managed conversation table
// (partition key user_id, sort key sk, TTL attribute ttl).
type DynamoStore struct {
	api   dynamoAPI
	table string
}

// NewDynamoStore builds a store using the ambient AWS credential chain.
func NewDynamoStore(ctx context.Context, table string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoStore{api: dynamodb.NewFromConfig(cfg), table: table}, nil
}

func (d *DynamoStore) Put(ctx context.Context, item Item) (string, error) {
	stamp(&item)

	row := dynamoItem{
		UserID:         item.UserID,
		SK:             item.ConversationID + "#" + item.Timestamp,
		ConversationID: item.ConversationID,
		Query:          item.Query,
		Response:       item.Response,
		Concept:        item.Concept,
		Audience:       item.Audience,
		Timestamp:      item.Timestamp,
		TTL:            item.TTL,
	}
	av, err := attributevalue.MarshalMap(row)
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}

	_, err = d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	})
	if err != nil {
		return "", fmt.Errorf("store conversation: %w", err)
	}
	return item.ConversationID, nil
}

func (d *DynamoStore) List(ctx context.Context, userID, conversationID string) ([]Item, error) {
	keyCond := "user_id = :uid"
	exprVals := map[string]any{":uid": userID}
	if conversationID != "" {
		keyCond += " AND begins_with(sk, :cid)"
		exprVals[":cid"] = conversationID + "#"
	}

	values, err := attributevalue.MarshalMap(exprVals)
	if err != nil {
		return nil, fmt.Errorf("marshal expression values: %w", err)
	}

	out, err := d.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // newest first
		Limit:                     aws.Int32(50),
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var rows []dynamoItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		// Tolerate rows written before the composite sort key.
		convID := r.ConversationID
		if convID == "" {
			convID, _, _ = strings.Cut(r.SK, "#")
		}
		items = append(items, Item{
			UserID:         r.UserID,
			ConversationID: convID,
			Query:          r.Query,
			Response:       r.Response,
			Concept:        r.Concept,
			Audience:       r.Audience,
			Timestamp:      r.Timestamp,
			TTL:            r.TTL,
		})
	}
	return items, nil
}

func (d *DynamoStore) Close() error { return nil }
