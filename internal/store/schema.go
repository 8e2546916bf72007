package store

import "sort"

// ColumnType — тип столбца в PostgreSQL.
type ColumnType string

const (
	TypeText        ColumnType = "text"
	TypeInteger     ColumnType = "integer"
	TypeBigint      ColumnType = "bigint"
	TypeNumeric     ColumnType = "numeric"
	TypeTimestamptz ColumnType = "timestamptz"
	TypeJSONB       ColumnType = "jsonb"
)

// Table описывает коллекцию: первичный ключ, уникальные поля и столбцы.
type Table struct {
	Key     string
	Unique  []string
	Columns map[string]ColumnType
}

// ColumnNames возвращает имена столбцов в алфавитном порядке.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema перечисляет известные коллекции. Должна совпадать с миграциями.
var Schema = map[string]Table{
	Orders: {
		Key: "service_id",
		Columns: map[string]ColumnType{
			"service_id":        TypeText,
			"customer_name":     TypeText,
			"equipment":         TypeText,
			"request_date":      TypeTimestamptz,
			"repair_type":       TypeText,
			"assigned_engineer": TypeText,
			"progress":          TypeInteger,
			"status":            TypeText,
			"qc_result":         TypeText,
			"repair_logs":       TypeJSONB,
			"user_id":           TypeText,
			"version":           TypeBigint,
		},
	},
	Spareparts: {
		Key: "part_id",
		Columns: map[string]ColumnType{
			"part_id":  TypeText,
			"name":     TypeText,
			"stock":    TypeInteger,
			"status":   TypeText,
			"location": TypeText,
		},
	},
	PartRequests: {
		Key: "request_id",
		Columns: map[string]ColumnType{
			"request_id":         TypeText,
			"service_id":         TypeText,
			"part_id":            TypeText,
			"part_name":          TypeText,
			"quantity_requested": TypeInteger,
			"requestor_name":     TypeText,
			"requestor_id":       TypeText,
			"request_date":       TypeTimestamptz,
			"status":             TypeText,
			"customer_name":      TypeText,
			"job_type":           TypeText,
		},
	},
	PurchaseOrders: {
		Key: "purchase_order_id",
		Columns: map[string]ColumnType{
			"purchase_order_id": TypeText,
			"service_id":        TypeText,
			"part_id":           TypeText,
			"part_name":         TypeText,
			"quantity":          TypeInteger,
			"justification":     TypeText,
			"requestor":         TypeText,
			"requestor_id":      TypeText,
			"request_date":      TypeTimestamptz,
			"status":            TypeText,
		},
	},
	QCReports: {
		Key: "qc_id",
		Columns: map[string]ColumnType{
			"qc_id":                TypeText,
			"service_id":           TypeText,
			"test_result":          TypeText,
			"certificate_file_url": TypeText,
			"inspection_date":      TypeTimestamptz,
			"inspector":            TypeText,
			"notes":                TypeText,
		},
	},
	Invoices: {
		Key: "invoice_id",
		Columns: map[string]ColumnType{
			"invoice_id":    TypeText,
			"service_id":    TypeText,
			"customer_name": TypeText,
			"amount":        TypeNumeric,
			"status":        TypeText,
			"due_date":      TypeTimestamptz,
			"issue_date":    TypeTimestamptz,
		},
	},
	Users: {
		Key:    "id",
		Unique: []string{"username"},
		Columns: map[string]ColumnType{
			"id":                TypeText,
			"username":          TypeText,
			"role":              TypeText,
			"customer_order_id": TypeText,
		},
	},
	AuthUsers: {
		Key:    "id",
		Unique: []string{"email"},
		Columns: map[string]ColumnType{
			"id":            TypeText,
			"email":         TypeText,
			"password_hash": TypeText,
			"created_at":    TypeTimestamptz,
		},
	},
}
