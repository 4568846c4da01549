package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifaisql/engine/pkg/apperrors"
)

func TestParseCSV_RejectsNonCSVExtension(t *testing.T) {
	_, err := ParseCSV("data.xlsx", []byte("a,b\n1,2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidFileType))
}

func TestParseCSV_AcceptsUppercaseExtension(t *testing.T) {
	table, err := ParseCSV("DATA.CSV", []byte("name,price\nwidget,9.99\n"))
	require.NoError(t, err)
	require.Len(t, table.Columns, 2)
}

func TestParseCSV_EmptyFile(t *testing.T) {
	_, err := ParseCSV("data.csv", []byte(""))
	require.Error(t, err)
}

func TestParseCSV_TypeInference(t *testing.T) {
	csvData := []byte("id,price,name,mixed,empty\n" +
		"1,9.99,widget,5,\n" +
		"2,12.50,gadget,oops,\n" +
		"3,3,doohickey,7,\n")

	table, err := ParseCSV("data.csv", csvData)
	require.NoError(t, err)
	require.Len(t, table.Columns, 5)

	assert.Equal(t, TypeInteger, table.Columns[0].Type, "all-integer column")
	assert.Equal(t, TypeReal, table.Columns[1].Type, "mixed int/float column")
	assert.Equal(t, TypeText, table.Columns[2].Type, "text column")
	assert.Equal(t, TypeText, table.Columns[3].Type, "mixed text/number column")
	assert.Equal(t, TypeText, table.Columns[4].Type, "all-empty column")
	assert.Len(t, table.Rows, 3)
}

func TestParseCSV_RaggedRowsRejected(t *testing.T) {
	_, err := ParseCSV("data.csv", []byte("a,b\n1,2,3\n"))
	require.Error(t, err)
}

func TestInferTableName_KeywordPriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		columns  []string
		expected string
	}{
		{
			name:     "product column wins over filename",
			filename: "Sales-Report.csv",
			columns:  []string{"product_id", "amount"},
			expected: "products",
		},
		{
			name:     "customer keyword",
			filename: "data.csv",
			columns:  []string{"customer_name"},
			expected: "customers",
		},
		{
			name:     "client maps to customers",
			filename: "data.csv",
			columns:  []string{"client_email"},
			expected: "customers",
		},
		{
			name:     "employee keyword",
			filename: "data.csv",
			columns:  []string{"employee_id"},
			expected: "employees",
		},
		{
			name:     "staff maps to employees",
			filename: "data.csv",
			columns:  []string{"staff_count"},
			expected: "employees",
		},
		{
			name:     "order keyword",
			filename: "data.csv",
			columns:  []string{"order_date"},
			expected: "orders",
		},
		{
			name:     "sale keyword",
			filename: "data.csv",
			columns:  []string{"sale_amount"},
			expected: "sales",
		},
		{
			name:     "property keyword",
			filename: "data.csv",
			columns:  []string{"property_value"},
			expected: "properties",
		},
		{
			name:     "student keyword",
			filename: "data.csv",
			columns:  []string{"student_grade"},
			expected: "students",
		},
		{
			name:     "transaction keyword",
			filename: "data.csv",
			columns:  []string{"transaction_id"},
			expected: "transactions",
		},
		{
			name:     "inventory keyword",
			filename: "data.csv",
			columns:  []string{"inventory_level"},
			expected: "inventory",
		},
		{
			name:     "product outranks customer when both present",
			filename: "data.csv",
			columns:  []string{"customer_id", "product_id"},
			expected: "products",
		},
		{
			name:     "case-insensitive column matching",
			filename: "data.csv",
			columns:  []string{"Product_ID"},
			expected: "products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferTableName(tt.filename, tt.columns))
		})
	}
}

func TestInferTableName_FilenameFallback(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"My-Data.csv", "mydata"},
		{"sales report.csv", "salesreport"},
		{"metrics_2024.csv", "metrics_2024"},
		{"---.csv", "data_table"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := InferTableName(tt.filename, []string{"name", "value"})
			assert.Equal(t, tt.expected, got)
		})
	}
}
