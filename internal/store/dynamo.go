package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// item is the table row. cost is a DynamoDB number.
type item struct {
	DoctorName    string     `dynamodbav:"DoctorName"`
	ProcedureTime string     `dynamodbav:"ProcedureTime"`
	ProcedureCode string     `dynamodbav:"procedure_code"`
	ProcedureName string     `dynamodbav:"procedure_name,omitempty"`
	Cost          numberAttr `dynamodbav:"cost"`
	TimeLogged    string     `dynamodbav:"time_logged,omitempty"`
}

type numberAttr struct {
	decimal.Decimal
}

func (n numberAttr) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: n.String()}, nil
}

func (n *numberAttr) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		n.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("cost: unexpected attribute type %T", av)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	n.Decimal = d
	return nil
}

func (it item) record() models.ProcedureRecord {
	rec := models.ProcedureRecord{
		DoctorName:    it.DoctorName,
		ProcedureCode: it.ProcedureCode,
		ProcedureName: it.ProcedureName,
		Cost:          it.Cost.Decimal,
	}
	if t, err := ParseTime(it.ProcedureTime); err == nil {
		rec.ProcedureTime = t
	}
	if t, err := ParseTime(it.TimeLogged); err == nil {
		rec.TimeLogged = t
	}
	return rec
}

func itemFrom(rec models.ProcedureRecord) item {
	it := item{
		DoctorName:    rec.DoctorName,
		ProcedureTime: models.FormatProcedureTime(rec.ProcedureTime),
		ProcedureCode: rec.ProcedureCode,
		ProcedureName: rec.ProcedureName,
		Cost:          numberAttr{rec.Cost},
	}
	if !rec.TimeLogged.IsZero() {
		it.TimeLogged = models.FormatProcedureTime(rec.TimeLogged)
	}
	return it
}

// ListDistinctNames scans the whole table projecting only DoctorName.
func (s *DynamoStore) ListDistinctNames(ctx context.Context) ([]string, error) {
	defer observe(BackendDynamoDB, "list_names", time.Now())

	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(AttrDoctorName))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build projection: %w", err)
	}

	var names []string
	pages := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan names: %w", err)
		}
		for _, av := range out.Items {
			var row struct {
				DoctorName string `dynamodbav:"DoctorName"`
			}
			if err := attributevalue.UnmarshalMap(av, &row); err != nil {
				return nil, fmt.Errorf("unmarshal name: %w", err)
			}
			names = append(names, row.DoctorName)
		}
	}
	return distinctSorted(names), nil
}

func (s *DynamoStore) QueryByName(ctx context.Context, doctorName string) ([]models.ProcedureRecord, error) {
	defer observe(BackendDynamoDB, "query_by_name", time.Now())

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(AttrDoctorName).Equal(expression.Value(doctorName))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	pages := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	var records []models.ProcedureRecord
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", doctorName, err)
		}
		page, err := unmarshalItems(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *DynamoStore) ScanByAttribute(ctx context.Context, attribute, value string) ([]models.ProcedureRecord, error) {
	defer observe(BackendDynamoDB, "scan_by_attribute", time.Now())

	expr, err := expression.NewBuilder().
		WithFilter(expression.Name(attribute).Equal(expression.Value(value))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	pages := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var records []models.ProcedureRecord
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s=%q: %w", attribute, value, err)
		}
		page, err := unmarshalItems(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *DynamoStore) Put(ctx context.Context, record models.ProcedureRecord) error {
	defer observe(BackendDynamoDB, "put", time.Now())

	av, err := attributevalue.MarshalMap(itemFrom(record))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func unmarshalItems(avs []map[string]types.AttributeValue) ([]models.ProcedureRecord, error) {
	var items []item
	if err := attributevalue.UnmarshalListOfMaps(avs, &items); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	records := make([]models.ProcedureRecord, 0, len(items))
	for _, it := range items {
		records = append(records, it.record())
	}
	return records, nil
}

func observe(backend, op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
