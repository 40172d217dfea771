package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// API is the subset of *dynamodb.Client the store needs.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NewClient builds a DynamoDB client from the default AWS credential chain,
// or from static keys when they are configured. DYNAMODB_ENDPOINT points the
// client at a local emulator.
func NewClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

// Store keeps both record kinds in DynamoDB tables whose partition key is
// the string attribute "email".
type Store struct {
	api       API
	authTable string
	planTable string
}

func New(api API, authTable, planTable string) *Store {
	return &Store{api: api, authTable: authTable, planTable: planTable}
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

func (s *Store) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.authTable),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to fetch credential: %w", err)
	}
	if len(out.Item) == 0 {
		return models.Credential{}, storage.ErrNotFound
	}

	var cred models.Credential
	if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
		return models.Credential{}, fmt.Errorf("failed to decode credential: %w", err)
	}
	return cred, nil
}

func (s *Store) CreateCredential(ctx context.Context, cred models.Credential) error {
	item, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.authTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (s *Store) GetPlanRecord(ctx context.Context, email string) (models.PlanRecord, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.planTable),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.PlanRecord{}, fmt.Errorf("failed to fetch plan record: %w", err)
	}
	if len(out.Item) == 0 {
		return models.PlanRecord{}, storage.ErrNotFound
	}

	var item planItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return models.PlanRecord{}, fmt.Errorf("failed to decode plan record: %w", err)
	}
	return item.toModel()
}

// PutPlanRecord replaces the whole item; DynamoDB applies a PutItem
// atomically per key.
func (s *Store) PutPlanRecord(ctx context.Context, rec models.PlanRecord) error {
	item, err := toPlanItem(rec)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to encode plan record: %w", err)
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.planTable),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save plan record: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.planTable),
	})
	return err
}
