package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var otpNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func otpItem(t *testing.T, o domain.OTP) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	return item
}

func TestOTPRepo_Replace_InvalidatesPendingInOneTransaction(t *testing.T) {
	api := new(mockAPI)
	repo := NewOTPRepo(api, "user_otps", "users")
	prev := domain.OTP{UserUID: "u1", OTPID: "01OLD", Code: "111111", Purpose: domain.OTPPurposePhone, ExpiresAt: otpNow.Add(time.Minute)}
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{otpItem(t, prev)},
	}, nil)

	var tx *dynamodb.TransactWriteItemsInput
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { tx = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	next := &domain.OTP{UserUID: "u1", OTPID: "01NEW", Code: "222222", Purpose: domain.OTPPurposePhone, ExpiresAt: otpNow.Add(5 * time.Minute)}
	require.NoError(t, repo.Replace(context.Background(), next))

	require.Len(t, tx.TransactItems, 2)
	upd := tx.TransactItems[0].Update
	require.NotNil(t, upd)
	assert.Equal(t, "SET #u = :t", *upd.UpdateExpression)
	assert.Equal(t, "#u = :f", *upd.ConditionExpression)
	assert.Equal(t, "01OLD", upd.Key[fieldOTPID].(*types.AttributeValueMemberS).Value)

	put := tx.TransactItems[1].Put
	require.NotNil(t, put)
	assert.Equal(t, "222222", put.Item[fieldOTPCode].(*types.AttributeValueMemberS).Value)
}

func TestOTPRepo_Replace_ConcurrentChangeIsConflict(t *testing.T) {
	api := new(mockAPI)
	repo := NewOTPRepo(api, "user_otps", "users")
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionCancelled())

	err := repo.Replace(context.Background(), &domain.OTP{UserUID: "u1", OTPID: "01NEW", Purpose: domain.OTPPurposeEmail})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOTPRepo_FindValid(t *testing.T) {
	api := new(mockAPI)
	repo := NewOTPRepo(api, "user_otps", "users")
	want := domain.OTP{UserUID: "u1", OTPID: "01A", Code: "012345", Purpose: domain.OTPPurposePhone, ExpiresAt: otpNow.Add(time.Minute)}

	var q *dynamodb.QueryInput
	api.On("Query", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { q = args.Get(1).(*dynamodb.QueryInput) }).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{otpItem(t, want)}}, nil)

	got, err := repo.FindValid(context.Background(), "u1", "012345", domain.OTPPurposePhone, otpNow)
	require.NoError(t, err)
	assert.Equal(t, "012345", got.Code)
	assert.True(t, *q.ConsistentRead)
	assert.Equal(t, "#c = :c AND #p = :p AND #u = :f AND #e >= :now", *q.FilterExpression)
	assert.Equal(t, unix(otpNow).Value, q.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value)
}

func TestOTPRepo_FindValid_NoMatch(t *testing.T) {
	api := new(mockAPI)
	repo := NewOTPRepo(api, "user_otps", "users")
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

	_, err := repo.FindValid(context.Background(), "u1", "000000", domain.OTPPurposePhone, otpNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOTPRepo_Consume_SetsMatchingFlag(t *testing.T) {
	tests := []struct {
		purpose domain.OTPPurpose
		flag    string
	}{
		{domain.OTPPurposePhone, fieldPhoneVerified},
		{domain.OTPPurposeEmail, fieldEmailVerified},
	}
	for _, tt := range tests {
		t.Run(string(tt.purpose), func(t *testing.T) {
			api := new(mockAPI)
			repo := NewOTPRepo(api, "user_otps", "users")
			var tx *dynamodb.TransactWriteItemsInput
			api.On("TransactWriteItems", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { tx = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
				Return(&dynamodb.TransactWriteItemsOutput{}, nil)

			o := &domain.OTP{UserUID: "u1", OTPID: "01A", Purpose: tt.purpose}
			require.NoError(t, repo.Consume(context.Background(), o, otpNow))

			require.Len(t, tx.TransactItems, 2)
			assert.Equal(t, "#u = :f AND #e >= :now", *tx.TransactItems[0].Update.ConditionExpression)
			user := tx.TransactItems[1].Update
			assert.Equal(t, "users", *user.TableName)
			assert.Equal(t, tt.flag, user.ExpressionAttributeNames["#flag"])
		})
	}
}

func TestOTPRepo_Consume_AlreadyUsed(t *testing.T) {
	api := new(mockAPI)
	repo := NewOTPRepo(api, "user_otps", "users")
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionCancelled())

	err := repo.Consume(context.Background(), &domain.OTP{UserUID: "u1", OTPID: "01A", Purpose: domain.OTPPurposePhone}, otpNow)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}
