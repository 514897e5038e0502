package airtable

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(server *httptest.Server) *Client {
	c := NewClient("test-key", "appBase123")
	c.BaseURL = server.URL
	return c
}

func TestQueryBuildsParams(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{"id": "rec1", "fields": map[string]interface{}{"Email": "a@example.org"}},
				{"id": "rec2", "fields": map[string]interface{}{"Email": "b@example.org"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	records, err := client.Query("Targets", QueryOptions{
		View:       "Next Targets",
		Formula:    "OR({Pin}=TRUE(), {Previous Emails}=2)",
		MaxRecords: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/appBase123/Targets" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotQuery["view"][0] != "Next Targets" {
		t.Errorf("expected view param, got %v", gotQuery)
	}
	if gotQuery["filterByFormula"][0] != "OR({Pin}=TRUE(), {Previous Emails}=2)" {
		t.Errorf("expected formula param, got %v", gotQuery)
	}
	if gotQuery["maxRecords"][0] != "2" {
		t.Errorf("expected maxRecords param, got %v", gotQuery)
	}

	if len(records) != 2 || records[0].ID != "rec1" {
		t.Fatalf("expected 2 records in view order, got %v", records)
	}
	if records[0].Fields["Email"] != "a@example.org" {
		t.Errorf("expected fields decoded, got %v", records[0].Fields)
	}
}

func TestQueryNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.Query("Targets", QueryOptions{}); err == nil {
		t.Fatal("expected a fetch error on 422")
	}
}

func TestUpdateSendsTypecast(t *testing.T) {
	var gotMethod, gotPath string
	var body map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server)
	err := client.Update("Targets", "rec1", map[string]interface{}{
		"Emails Sent Manual": 5,
		"Contact Sent To":    []string{"https://crm.example/people/p1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/appBase123/Targets/rec1" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if body["typecast"] != true {
		t.Errorf("expected typecast true, got %v", body)
	}
	fields := body["fields"].(map[string]interface{})
	if fields["Emails Sent Manual"] != float64(5) {
		t.Errorf("expected counter in payload, got %v", fields)
	}
}
