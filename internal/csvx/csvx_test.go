package csvx

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Simple(t *testing.T) {
	doc, err := Parse("a,b,c\n1,2,3\n4,5,6\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !reflect.DeepEqual(doc.Headers, []string{"a", "b", "c"}) {
		t.Errorf("Headers = %v", doc.Headers)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(doc.Rows))
	}
	if !reflect.DeepEqual(doc.Rows[1], []string{"4", "5", "6"}) {
		t.Errorf("Rows[1] = %v", doc.Rows[1])
	}
}

func TestParse_LineEndingsAndBlankLines(t *testing.T) {
	doc, err := Parse("a,b\r\n\r\n1,2\r3,4\n\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(doc.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(doc.Rows))
	}
	if doc.Rows[0][1] != "2" || doc.Rows[1][0] != "3" {
		t.Errorf("Rows = %v", doc.Rows)
	}
}

func TestParse_QuotedFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"comma inside quotes", `"Widget, blue",10`, []string{"Widget, blue", "10"}},
		{"doubled quote", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"trimmed unquoted", ` a , b `, []string{"a", "b"}},
		{"empty trailing field", "a,b,", []string{"a", "b", ""}},
		{"quoted empty", `"",x`, []string{"", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitFields(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitFields(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "\n\n", "\r\n", "   \n  \n"} {
		if _, err := Parse(raw); !errors.Is(err, ErrEmptyCSV) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyCSV", raw, err)
		}
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	doc, err := Parse("order_name,tracking_number")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(doc.Rows))
	}
}

var testAliases = FieldAliases{
	"order_name":      {"order_name", "order", "name"},
	"tracking_number": {"tracking_number", "tracking", "tn"},
	"carrier":         {"carrier", "company", "shipping_company"},
	"notify_customer": {"notify_customer", "notify"},
}

func TestRecords_AliasMatching(t *testing.T) {
	doc, err := Parse("Order,TN,Shipping_Company\n1001,1Z99,UPS\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	recs := doc.Records(testAliases)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}

	rec := recs[0]
	if rec["order_name"] != "1001" {
		t.Errorf("order_name = %q, want %q", rec["order_name"], "1001")
	}
	if rec["tracking_number"] != "1Z99" {
		t.Errorf("tracking_number = %q, want %q", rec["tracking_number"], "1Z99")
	}
	if rec["carrier"] != "UPS" {
		t.Errorf("carrier = %q, want %q", rec["carrier"], "UPS")
	}
	if rec["notify_customer"] != "" {
		t.Errorf("notify_customer = %q, want empty", rec["notify_customer"])
	}
}

func TestRecords_ShortRow(t *testing.T) {
	doc, err := Parse("order_name,tracking_number,carrier\n1001\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rec := doc.Records(testAliases)[0]
	if rec["order_name"] != "1001" {
		t.Errorf("order_name = %q", rec["order_name"])
	}
	if rec["tracking_number"] != "" || rec["carrier"] != "" {
		t.Errorf("missing fields should default to empty, got %v", rec)
	}
}

func TestRecords_BOMHeader(t *testing.T) {
	doc, err := Parse("\ufefforder_name\n1001\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rec := doc.Records(testAliases)[0]
	if rec["order_name"] != "1001" {
		t.Errorf("order_name = %q, want %q (BOM should be stripped)", rec["order_name"], "1001")
	}
}
