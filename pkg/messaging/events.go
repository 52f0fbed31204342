package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	// Stock events
	EventStockDispensed = "stock.dispensed"
	EventStockAdjusted  = "stock.adjusted"

	// Batch events
	EventBatchReceived = "batch.received"
	EventBatchDeleted  = "batch.deleted"

	// Medicine events
	EventMedicineCreated = "medicine.created"
	EventMedicineUpdated = "medicine.updated"
	EventMedicineDeleted = "medicine.deleted"

	// Import events
	EventImportCompleted = "import.completed"
)

// Exchange names
const (
	ExchangePharmacyEvents = "pharmacy.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Stock Events

// DispensedLine is one allocation made by a dispense
type DispensedLine struct {
	MedicineID int64           `json:"medicine_id"`
	BatchID    int64           `json:"batch_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// StockDispensedEvent is published after a dispense transaction commits
type StockDispensedEvent struct {
	ReceiptID   int64           `json:"receipt_id"`
	PatientName string          `json:"patient_name"`
	TotalItems  int             `json:"total_items"`
	Lines       []DispensedLine `json:"lines"`
	DispensedBy *int64          `json:"dispensed_by,omitempty"`
}

// StockAdjustedEvent is published when a batch quantity is corrected directly
type StockAdjustedEvent struct {
	BatchID     int64  `json:"batch_id"`
	MedicineID  int64  `json:"medicine_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	AdjustedBy  *int64 `json:"adjusted_by,omitempty"`
}

// Batch Events

// BatchReceivedEvent is published when a new batch enters stock
type BatchReceivedEvent struct {
	BatchID    int64     `json:"batch_id"`
	MedicineID int64     `json:"medicine_id"`
	BatchNo    string    `json:"batch_no"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiry_date"`
	ReceivedBy *int64    `json:"received_by,omitempty"`
}

// BatchDeletedEvent is published when an empty batch is removed
type BatchDeletedEvent struct {
	BatchID    int64 `json:"batch_id"`
	MedicineID int64 `json:"medicine_id"`
}

// Medicine Events

// MedicineCreatedEvent is published when a medicine is created
type MedicineCreatedEvent struct {
	MedicineID int64           `json:"medicine_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"category_id,omitempty"`
}

// MedicineUpdatedEvent is published when a medicine is updated
type MedicineUpdatedEvent struct {
	MedicineID int64          `json:"medicine_id"`
	Fields     map[string]any `json:"fields"`
}

// MedicineDeletedEvent is published when a medicine is deleted
type MedicineDeletedEvent struct {
	MedicineID int64 `json:"medicine_id"`
}

// Import Events

// ImportCompletedEvent is published when a confirmed Excel import finishes
type ImportCompletedEvent struct {
	ImportKey  string `json:"import_key"`
	ImportType string `json:"import_type"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Failed     int    `json:"failed"`
	ImportedBy *int64 `json:"imported_by,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
