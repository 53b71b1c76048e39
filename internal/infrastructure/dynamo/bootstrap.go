package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/config"
	"go.uber.org/zap"
)

// TableAdmin is the subset of *dynamodb.Client used to create tables.
type TableAdmin interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Bootstrap creates all tables and GSIs that don't exist yet. Safe to call on
// every startup.
func Bootstrap(ctx context.Context, client TableAdmin, tables config.DynamoTables, log *zap.Logger) {
	createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldUserUID),
			attr(fieldUsername),
			attr(fieldEmail),
			attr(fieldMobileNumber),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserUID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUsername, fieldUsername, ""),
			gsi(indexEmail, fieldEmail, ""),
			gsi(indexMobileNumber, fieldMobileNumber, ""),
		},
	})

	createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.UserIdentifiers),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attr(fieldIdentifier)},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldIdentifier), KeyType: types.KeyTypeHash},
		},
	})

	createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.UserOTPs),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attr(fieldUserUID), attr(fieldOTPID)},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserUID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(fieldOTPID), KeyType: types.KeyTypeRange},
		},
	})
	// Expiry is enforced on read; TTL only reclaims storage.
	enableTTL(ctx, client, log, tables.UserOTPs, fieldExpiresAt)

	createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.UserTokens),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldUserUID),
			attr(fieldDeviceUUID),
			attr(fieldRefreshToken),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserUID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(fieldDeviceUUID), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexRefreshToken, fieldRefreshToken, ""),
		},
	})

	createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Todos),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attr(fieldTodoUID), attr(fieldUserUID)},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldTodoUID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserUID, fieldUserUID, ""),
		},
	})
}

func attr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client TableAdmin, log *zap.Logger, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException: table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			log.Warn("could not create table", zap.String("table", *input.TableName), zap.Error(err))
		}
		return
	}
	log.Info("created table", zap.String("table", *input.TableName))
}

func enableTTL(ctx context.Context, client TableAdmin, log *zap.Logger, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		log.Warn("could not enable TTL", zap.String("table", tableName), zap.Error(err))
	}
}
