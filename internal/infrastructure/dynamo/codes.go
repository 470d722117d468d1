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
	"github.com/go-api-auth/internal/domain"
)

const (
	attrEmail     = "email"
	attrCode      = "code"
	attrExpiresAt = "expires_at"
)

type codesAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CodeStore keeps verification codes in DynamoDB. PK: email.
// Native TTL deletion is lazy, so reads also check expires_at.
type CodeStore struct {
	client    codesAPI
	tableName string
	now       func() time.Time
}

func NewCodeStore(client codesAPI, tableName string) *CodeStore {
	return &CodeStore{client: client, tableName: tableName, now: time.Now}
}

func (s *CodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) (bool, error) {
	now := s.now()
	item, err := attributevalue.MarshalMap(domain.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal code: %w", err)
	}
	out, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    aws.String(s.tableName),
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("put code: %w", err)
	}
	if len(out.Attributes) == 0 {
		return false, nil
	}
	var prev domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Attributes, &prev); err != nil {
		return false, fmt.Errorf("unmarshal previous code: %w", err)
	}
	return prev.ExpiresAt > now.Unix(), nil
}

func (s *CodeStore) Get(ctx context.Context, email string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            strKey(attrEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get code: %w", err)
	}
	if out.Item == nil {
		return "", fmt.Errorf("code: %w", domain.ErrNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return "", fmt.Errorf("unmarshal code: %w", err)
	}
	if v.ExpiresAt <= s.now().Unix() {
		return "", fmt.Errorf("code expired: %w", domain.ErrNotFound)
	}
	return v.Code, nil
}

// CompareAndDelete deletes the item only while it holds expected and has not expired.
func (s *CodeStore) CompareAndDelete(ctx context.Context, email, expected string) (bool, error) {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 strKey(attrEmail, email),
		ConditionExpression: aws.String("#c = :code AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#c": attrCode,
			"#e": attrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: expected},
			":now":  numValue(s.now().Unix()),
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	return true, nil
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey(attrEmail, email),
	})
	if err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

// Ping checks that the table is reachable.
func (s *CodeStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}
