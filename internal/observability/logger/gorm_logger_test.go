package logger

import "testing"

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql       string
		operation string
		table     string
	}{
		{`SELECT * FROM "orders" WHERE id = $1`, "SELECT", "orders"},
		{`INSERT INTO "payments" ("id") VALUES ($1)`, "INSERT", "payments"},
		{`UPDATE "subscriptions" SET "status"=$1`, "UPDATE", "subscriptions"},
		{"", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		if op != tc.operation || table != tc.table {
			t.Fatalf("describeSQL(%q) = %s/%s, want %s/%s", tc.sql, op, table, tc.operation, tc.table)
		}
	}
}
