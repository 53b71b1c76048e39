package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAdmin struct {
	created map[string]*dynamodb.CreateTableInput
	ttl     []*dynamodb.UpdateTimeToLiveInput
	errs    map[string]error
}

func (f *fakeAdmin) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if err := f.errs[aws.ToString(in.TableName)]; err != nil {
		return nil, err
	}
	f.created[aws.ToString(in.TableName)] = in
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAdmin) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.ttl = append(f.ttl, in)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func testTables() config.DynamoTables {
	return config.DynamoTables{
		Users:           "users",
		UserIdentifiers: "user_identifiers",
		UserOTPs:        "user_otps",
		UserTokens:      "user_tokens",
		Todos:           "todos",
	}
}

func indexNames(in *dynamodb.CreateTableInput) []string {
	var out []string
	for _, g := range in.GlobalSecondaryIndexes {
		out = append(out, aws.ToString(g.IndexName))
	}
	return out
}

func TestBootstrap_CreatesTablesAndIndexes(t *testing.T) {
	admin := &fakeAdmin{created: map[string]*dynamodb.CreateTableInput{}}
	Bootstrap(context.Background(), admin, testTables(), zap.NewNop())

	require.Len(t, admin.created, 5)
	assert.ElementsMatch(t, []string{indexUsername, indexEmail, indexMobileNumber}, indexNames(admin.created["users"]))
	assert.Equal(t, []string{indexRefreshToken}, indexNames(admin.created["user_tokens"]))
	assert.Equal(t, []string{indexUserUID}, indexNames(admin.created["todos"]))

	tokens := admin.created["user_tokens"]
	require.Len(t, tokens.KeySchema, 2)
	assert.Equal(t, fieldDeviceUUID, aws.ToString(tokens.KeySchema[1].AttributeName))

	require.Len(t, admin.ttl, 1)
	assert.Equal(t, "user_otps", aws.ToString(admin.ttl[0].TableName))
	assert.Equal(t, fieldExpiresAt, aws.ToString(admin.ttl[0].TimeToLiveSpecification.AttributeName))
}

func TestBootstrap_ExistingTableIsQuiet(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	admin := &fakeAdmin{
		created: map[string]*dynamodb.CreateTableInput{},
		errs: map[string]error{
			"users": &types.ResourceInUseException{Message: aws.String("exists")},
			"todos": errors.New("access denied"),
		},
	}
	Bootstrap(context.Background(), admin, testTables(), zap.New(core))

	assert.Len(t, admin.created, 3)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "todos", logs.All()[0].ContextMap()["table"])
}
