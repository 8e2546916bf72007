package store

import (
	"time"
)

// SeedDemo заполняет хранилище в памяти демонстрационными данными для
// локального запуска без базы.
func SeedDemo(m *Memory, now time.Time) error {
	day := 24 * time.Hour
	ts := func(d time.Duration) string {
		return now.Add(-d).UTC().Format(time.RFC3339Nano)
	}

	parts := []Record{
		{"part_id": "SP-001", "name": "Injector Nozzle", "stock": 12, "status": "Available", "location": "Rack A-1"},
		{"part_id": "SP-002", "name": "Fuel Pump Plunger", "stock": 4, "status": "Available", "location": "Rack A-2"},
		{"part_id": "SP-003", "name": "Delivery Valve", "stock": 0, "status": "Back Order", "location": "Rack B-1"},
		{"part_id": "SP-004", "name": "Gasket Kit", "stock": 30, "status": "Available", "location": "Rack C-3"},
	}

	orders := []Record{
		{
			"service_id": "SRV-2024-001", "customer_name": "PT. Sukses Selalu", "equipment": "Caterpillar 3306 Injector",
			"request_date": ts(6 * day), "repair_type": "Minor", "assigned_engineer": "N/A", "progress": 5,
			"status": "New Request", "qc_result": nil, "repair_logs": []any{}, "user_id": nil, "version": 1,
		},
		{
			"service_id": "SRV-2024-002", "customer_name": "CV. Maju Jaya", "equipment": "Bosch VE Fuel Pump",
			"request_date": ts(10 * day), "repair_type": "Full Service", "assigned_engineer": "engineer@demo.local", "progress": 90,
			"status": "Quality Control", "qc_result": nil, "user_id": nil, "version": 3,
			"repair_logs": []any{
				map[string]any{
					"log_id": "LOG-DEMO-1", "service_id": "SRV-2024-002", "action": "Initial Diagnosis",
					"date": ts(9 * day), "author": "engineer@demo.local", "notes": "Worn plunger, full overhaul.",
				},
				map[string]any{
					"log_id": "LOG-DEMO-2", "service_id": "SRV-2024-002", "action": "Repair Completed",
					"date": ts(2 * day), "author": "engineer@demo.local", "notes": "Repair work completed.",
				},
			},
		},
		{
			"service_id": "SRV-2024-003", "customer_name": "PT. Tambang Raya", "equipment": "Komatsu Injector Set",
			"request_date": ts(20 * day), "repair_type": "Minor", "assigned_engineer": "engineer@demo.local", "progress": 100,
			"status": "Paid & Closed", "qc_result": "Pass", "repair_logs": []any{}, "user_id": nil, "version": 6,
		},
	}

	qcReports := []Record{
		{
			"qc_id": "QC-001", "service_id": "SRV-2024-003", "test_result": "Pass", "certificate_file_url": nil,
			"inspection_date": ts(12 * day), "inspector": "qc@demo.local", "notes": "Spray pattern within tolerance.",
		},
	}

	invoices := []Record{
		{
			"invoice_id": "INV-001", "service_id": "SRV-2024-003", "customer_name": "PT. Tambang Raya",
			"amount": "12500000.00", "status": "Paid", "due_date": ts(5 * day), "issue_date": ts(11 * day),
		},
		{
			"invoice_id": "INV-002", "service_id": "SRV-2024-002", "customer_name": "CV. Maju Jaya",
			"amount": "8750000.00", "status": "Pending", "due_date": ts(-14 * day), "issue_date": ts(1 * day),
		},
		{
			"invoice_id": "INV-003", "service_id": "SRV-2023-117", "customer_name": "PT. Sukses Selalu",
			"amount": "4300000.50", "status": "Overdue", "due_date": ts(30 * day), "issue_date": ts(60 * day),
		},
	}

	for collection, recs := range map[string][]Record{
		Spareparts: parts,
		Orders:     orders,
		QCReports:  qcReports,
		Invoices:   invoices,
	} {
		if err := m.Seed(collection, recs...); err != nil {
			return err
		}
	}
	return nil
}
