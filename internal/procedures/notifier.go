package procedures

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

const EventProcedureRecorded = "procedure-recorded"

// Notifier is told about every stored procedure.
type Notifier interface {
	ProcedureRecorded(ctx context.Context, record models.ProcedureRecord) error
}

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes a JSON event per recorded procedure.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

func NewSNSNotifier(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

type procedureEvent struct {
	EventID       string `json:"eventId"`
	EventType     string `json:"eventType"`
	DoctorName    string `json:"doctorName"`
	ProcedureCode string `json:"procedureCode"`
	ProcedureName string `json:"procedureName,omitempty"`
	Cost          string `json:"cost"`
	ProcedureTime string `json:"procedureTime"`
}

func (n *SNSNotifier) ProcedureRecorded(ctx context.Context, record models.ProcedureRecord) error {
	body, err := json.Marshal(procedureEvent{
		EventID:       uuid.New().String(),
		EventType:     EventProcedureRecorded,
		DoctorName:    record.DoctorName,
		ProcedureCode: record.ProcedureCode,
		ProcedureName: record.ProcedureName,
		Cost:          record.Cost.StringFixed(2),
		ProcedureTime: models.FormatProcedureTime(record.ProcedureTime),
	})
	if err != nil {
		return apperrors.NewNotificationPublishError(err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Procedure recorded"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventProcedureRecorded),
			},
			"procedureCode": {
				DataType:    aws.String("String"),
				StringValue: aws.String(record.ProcedureCode),
			},
		},
	})
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		return apperrors.NewNotificationPublishError(err)
	}
	metrics.NotificationsPublished.WithLabelValues("published").Inc()
	return nil
}
