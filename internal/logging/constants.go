package logging

// Standardized field names for structured logging.
// These constants ensure consistency across the application's log output,
// making logs easier to parse, filter, and analyze.
const (
	FieldFile          = "file_path"
	FieldImportID      = "import_id"
	FieldAccount       = "account"
	FieldCategory      = "category"
	FieldReason        = "reason"
	FieldOperation     = "operation"
	FieldStatus        = "status"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldAmount        = "amount"
	FieldVerdict       = "verdict"
	FieldPostedDate    = "posted_date"
	FieldDescription   = "description"
	FieldExistingDate  = "existing_posted_date"
	FieldExistingDesc  = "existing_description"
	FieldSimilarity    = "similarity"
	FieldGapDays       = "gap_days"
	FieldBackend       = "backend"
	FieldRow           = "row"
	FieldSource        = "source"
	FieldDestination   = "destination"
	FieldStatusMessage = "message"
)
