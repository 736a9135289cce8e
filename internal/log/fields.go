package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldError     = "error"

	FieldEntryID     = "entry_id"
	FieldAccountID   = "account_id"
	FieldGroupID     = "group_id"
	FieldRowRef      = "row_ref"
	FieldProductID   = "product_id"
	FieldWarehouseID = "warehouse_id"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStock   = "stock"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
