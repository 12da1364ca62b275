package reportstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
	itemJSONAttribute = "item"
	statusAttribute   = "status"

	latestKey = "$latest"

	// BatchWriteItem accepts at most this many requests.
	dynamoDBMaxBatchSize = 25
)

// DynamoDBStore writes one item per case, partitioned by run, plus a copy of the whole report
// under a fixed key:
//
//	namespace=<prefix>:<runId>  key=<case number>  item=case JSON  status=<status>
//	namespace=<prefix>:$latest  key=$latest        item=report JSON
type DynamoDBStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
	config Config
}

func openDynamoDB(ctx context.Context, u *url.URL, config Config) (Store, error) {
	table := u.Host
	if table == "" {
		return nil, errors.New("DynamoDB store URL must name a table, as in dynamodb://table")
	}
	awsConfig := aws.NewConfig()
	if region := u.Query().Get("region"); region != "" {
		awsConfig = awsConfig.WithRegion(region)
	}
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	store := &DynamoDBStore{client: dynamodb.New(sess), table: table, config: config}
	if u.Query().Get("create") == "true" {
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (d *DynamoDBStore) namespace(value string) string {
	return d.config.KeyPrefix + ":" + value
}

// EnsureTable creates the table if it does not already exist.
func (d *DynamoDBStore) EnsureTable(ctx context.Context) error {
	_, err := d.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return err
	}
	d.config.Logger.Printf("Creating DynamoDB table %s", d.table)
	_, err = d.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(tablePartitionKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
			{
				AttributeName: aws.String(tableSortKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(tablePartitionKey),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
			{
				AttributeName: aws.String(tableSortKey),
				KeyType:       aws.String(dynamodb.KeyTypeRange),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableName:   aws.String(d.table),
	})
	return err
}

func (d *DynamoDBStore) Save(ctx context.Context, report lifecycle.Report) error {
	data, err := report.MarshalJSON()
	if err != nil {
		return err
	}
	requests := make([]*dynamodb.WriteRequest, 0, len(report.Cases)+1)
	for i, c := range report.Cases {
		requests = append(requests, &dynamodb.WriteRequest{
			PutRequest: &dynamodb.PutRequest{
				Item: map[string]*dynamodb.AttributeValue{
					tablePartitionKey: {S: aws.String(d.namespace(report.RunID))},
					tableSortKey:      {S: aws.String(caseKey(i))},
					itemJSONAttribute: {S: aws.String(string(caseRecord(c)))},
					statusAttribute:   {S: aws.String(string(c.Outcome.Status))},
				},
			},
		})
	}
	if err := d.batchWriteRequests(ctx, requests); err != nil {
		return fmt.Errorf("failed to write %d item(s) in batches: %w", len(requests), err)
	}

	// The latest report is written separately, after all of its cases, so readers of the latest
	// key never see a run that is only partly stored.
	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(d.namespace(latestKey))},
			tableSortKey:      {S: aws.String(latestKey)},
			itemJSONAttribute: {S: aws.String(string(data))},
		},
	})
	if err != nil {
		return err
	}
	d.config.Logger.Printf("Saved run %s (%d cases) to DynamoDB table %s", report.RunID, len(report.Cases), d.table)
	return nil
}

// batchWriteRequests executes a list of write requests in batches of 25, which is the maximum
// BatchWriteItem can handle.
func (d *DynamoDBStore) batchWriteRequests(ctx context.Context, requests []*dynamodb.WriteRequest) error {
	for len(requests) > 0 {
		batchSize := len(requests)
		if batchSize > dynamoDBMaxBatchSize {
			batchSize = dynamoDBMaxBatchSize
		}
		batch := requests[:batchSize]
		requests = requests[batchSize:]

		out, err := d.client.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{d.table: batch},
		})
		if err != nil {
			return err
		}
		if out != nil {
			if unprocessed := len(out.UnprocessedItems[d.table]); unprocessed > 0 {
				return fmt.Errorf("DynamoDB left %d request(s) unprocessed", unprocessed)
			}
		}
	}
	return nil
}

func (d *DynamoDBStore) Latest(ctx context.Context) (opt.Maybe[lifecycle.Report], error) {
	result, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(d.namespace(latestKey))},
			tableSortKey:      {S: aws.String(latestKey)},
		},
	})
	if err != nil || result == nil || result.Item == nil {
		return opt.None[lifecycle.Report](), err
	}
	item := result.Item[itemJSONAttribute]
	if item == nil || item.S == nil {
		return opt.None[lifecycle.Report](), errors.New("stored report has no item attribute")
	}
	return decodeReport([]byte(*item.S))
}

func (d *DynamoDBStore) Close() error {
	return nil
}
