package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/domain"
)

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100

// OTPRepo manages one-time codes. PK: user_uid, SK: otp_id (ULID).
// Expired rows are never deleted; they simply stop matching.
type OTPRepo struct {
	client     API
	tableName  string
	usersTable string
}

func NewOTPRepo(client API, tableName, usersTable string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName, usersTable: usersTable}
}

// Put inserts a new OTP row.
func (r *OTPRepo) Put(ctx context.Context, o *domain.OTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{"#sk": fieldOTPID},
	})
	return err
}

// Replace marks every unused OTP of o.UserUID/o.Purpose as used and inserts o,
// all in one transaction. A concurrent replace or consume makes the
// transaction fail instead of leaving two usable codes.
func (r *OTPRepo) Replace(ctx context.Context, o *domain.OTP) error {
	pending, err := r.query(ctx, o.UserUID,
		"#p = :p AND #u = :f",
		map[string]string{"#p": fieldPurpose, "#u": fieldIsUsed},
		map[string]types.AttributeValue{":p": str(string(o.Purpose)), ":f": boolean(false)},
	)
	if err != nil {
		return err
	}
	if len(pending)+1 > maxTransactItems {
		return fmt.Errorf("too many pending otps for user %s: %d", o.UserUID, len(pending))
	}

	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	items := make([]types.TransactWriteItem, 0, len(pending)+1)
	for _, p := range pending {
		items = append(items, types.TransactWriteItem{Update: r.markUsed(p.UserUID, p.OTPID, "#u = :f", nil)})
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
			ExpressionAttributeNames: map[string]string{"#sk": fieldOTPID},
		},
	})
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isConditionFailure(err) {
		return fmt.Errorf("otp replaced concurrently: %w", domain.ErrConflict)
	}
	return err
}

// FindValid returns the unused, unexpired OTP matching user, code and purpose.
func (r *OTPRepo) FindValid(ctx context.Context, userUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.OTP, error) {
	found, err := r.query(ctx, userUID,
		"#c = :c AND #p = :p AND #u = :f AND #e >= :now",
		map[string]string{"#c": fieldOTPCode, "#p": fieldPurpose, "#u": fieldIsUsed, "#e": fieldExpiresAt},
		map[string]types.AttributeValue{
			":c":   str(code),
			":p":   str(string(purpose)),
			":f":   boolean(false),
			":now": unix(now),
		},
	)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &found[len(found)-1], nil
}

// Consume marks o used and sets the matching verification flag on the user
// in one transaction. Returns ErrInvalidOTP when o was consumed, replaced or
// expired in the meantime.
func (r *OTPRepo) Consume(ctx context.Context, o *domain.OTP, now time.Time) error {
	flag := fieldPhoneVerified
	if o.Purpose == domain.OTPPurposeEmail {
		flag = fieldEmailVerified
	}
	items := []types.TransactWriteItem{
		{Update: r.markUsed(o.UserUID, o.OTPID, "#u = :f AND #e >= :now", map[string]types.AttributeValue{":now": unix(now)})},
		{Update: &types.Update{
			TableName:           aws.String(r.usersTable),
			Key:                 strKey(fieldUserUID, o.UserUID),
			UpdateExpression:    aws.String("SET #flag = :t, #ts = :ts"),
			ConditionExpression: aws.String("attribute_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{
				"#flag": flag,
				"#ts":   fieldUpdatedAt,
				"#pk":   fieldUserUID,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t":  boolean(true),
				":ts": timestamp(now),
			},
		}},
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isConditionFailure(err) {
		return domain.ErrInvalidOTP
	}
	return err
}

func (r *OTPRepo) markUsed(userUID, otpID, cond string, extra map[string]types.AttributeValue) *types.Update {
	names := map[string]string{"#u": fieldIsUsed}
	if extra[":now"] != nil {
		names["#e"] = fieldExpiresAt
	}
	values := map[string]types.AttributeValue{":t": boolean(true), ":f": boolean(false)}
	for k, v := range extra {
		values[k] = v
	}
	return &types.Update{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldUserUID, userUID, fieldOTPID, otpID),
		UpdateExpression:          aws.String("SET #u = :t"),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

// query reads every row of userUID matching filter, oldest first. Reads are
// strongly consistent so a code issued a moment ago is visible.
func (r *OTPRepo) query(ctx context.Context, userUID, filter string, names map[string]string, values map[string]types.AttributeValue) ([]domain.OTP, error) {
	names["#pk"] = fieldUserUID
	values[":uid"] = str(userUID)
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#pk = :uid"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(true),
	}
	var out []domain.OTP
	for {
		page, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var batch []domain.OTP
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}
