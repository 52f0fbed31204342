package events

import (
	"context"

	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
)

// Publisher publishes pharmacy domain events
type Publisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a new pharmacy event publisher
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePharmacyEvents, "pharmacy-service", log)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockDispensed publishes a stock dispensed event
func (p *Publisher) PublishStockDispensed(ctx context.Context, data *messaging.StockDispensedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventStockDispensed, data); err != nil {
		p.logger.Error().Err(err).Int64("receipt_id", data.ReceiptID).Msg("failed to publish stock dispensed event")
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *Publisher) PublishStockAdjusted(ctx context.Context, data *messaging.StockAdjustedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", data.BatchID).Msg("failed to publish stock adjusted event")
	}
}

// PublishBatchReceived publishes a batch received event
func (p *Publisher) PublishBatchReceived(ctx context.Context, data *messaging.BatchReceivedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", data.BatchID).Msg("failed to publish batch received event")
	}
}

// PublishBatchDeleted publishes a batch deleted event
func (p *Publisher) PublishBatchDeleted(ctx context.Context, data *messaging.BatchDeletedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventBatchDeleted, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", data.BatchID).Msg("failed to publish batch deleted event")
	}
}

// PublishMedicineCreated publishes a medicine created event
func (p *Publisher) PublishMedicineCreated(ctx context.Context, data *messaging.MedicineCreatedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventMedicineCreated, data); err != nil {
		p.logger.Error().Err(err).Int64("medicine_id", data.MedicineID).Msg("failed to publish medicine created event")
	}
}

// PublishImportCompleted publishes an import completed event
func (p *Publisher) PublishImportCompleted(ctx context.Context, data *messaging.ImportCompletedEvent) {
	if p == nil {
		return
	}
	if err := p.publisher.Publish(ctx, messaging.EventImportCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("import_key", data.ImportKey).Msg("failed to publish import completed event")
	}
}
