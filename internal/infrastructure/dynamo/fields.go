package dynamo

// DynamoDB attribute names used in filter and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail       = "email"
	fieldEntryID     = "entry_id"
	fieldStatus      = "status"
	fieldCreatedAt   = "created_at"
	fieldLastLogin   = "last_login"
	fieldUpdatedAt   = "updated_at"
)
