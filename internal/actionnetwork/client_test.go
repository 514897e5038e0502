package actionnetwork

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const (
	personUUID  = "0a2b9c4d-1111-2222-3333-444455556666"
	taggingUUID = "9f8e7d6c-aaaa-bbbb-cccc-ddddeeeeffff"
)

func newTestClient(server *httptest.Server) *Client {
	c := NewClient("test-key")
	c.BaseURL = server.URL + "/"
	return c
}

func TestListTaggingsPaginates(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("OSDI-API-Token")

		page := map[string]interface{}{
			"_embedded": map[string]interface{}{
				"osdi:taggings": []map[string]interface{}{
					{
						"modified_date": "2024-06-01T10:00:00Z",
						"_links": map[string]interface{}{
							"self":        map[string]string{"href": "https://an.example/taggings/" + taggingUUID},
							"osdi:person": map[string]string{"href": "https://an.example/people/" + personUUID},
						},
					},
				},
			},
			"_links": map[string]interface{}{},
		}

		if r.URL.Path == "/tags/tag-1/taggings" {
			// First page links to a second one
			page["_links"] = map[string]interface{}{
				"next": map[string]string{"href": fmt.Sprintf("http://%s/page2", r.Host)},
			}
		}

		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := newTestClient(server)
	taggings, err := client.ListTaggings("tag-1")
	if err != nil {
		t.Fatal(err)
	}

	if gotToken != "test-key" {
		t.Errorf("expected OSDI-API-Token header, got %q", gotToken)
	}
	if len(taggings) != 2 {
		t.Fatalf("expected 2 taggings across pages, got %d", len(taggings))
	}
	if taggings[0].PersonID != personUUID {
		t.Errorf("expected person UUID extracted from link, got %s", taggings[0].PersonID)
	}
	if taggings[0].ModifiedAt.IsZero() {
		t.Errorf("expected modified date parsed")
	}
}

func TestListTaggingsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.ListTaggings("tag-1"); err == nil {
		t.Fatal("expected a fetch error on 403")
	}
}

func TestGetPerson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/"+personUUID {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"custom_fields": map[string]interface{}{
				"demo_target_index": "2",
			},
			"_links": map[string]interface{}{
				"self": map[string]string{"href": "https://an.example/people/" + personUUID},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	person, err := client.GetPerson(personUUID)
	if err != nil {
		t.Fatal(err)
	}
	if person.ID != personUUID {
		t.Errorf("expected id %s, got %s", personUUID, person.ID)
	}
	if person.CustomFields["demo_target_index"] != "2" {
		t.Errorf("expected custom fields decoded, got %v", person.CustomFields)
	}
}

func TestUpdatePersonSendsCustomFields(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server)
	err := client.UpdatePerson(personUUID, map[string]interface{}{"demo_target_index": 3})
	if err != nil {
		t.Fatal(err)
	}

	fields, ok := body["custom_fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected custom_fields wrapper, got %v", body)
	}
	if fields["demo_target_index"] != float64(3) {
		t.Errorf("expected index 3 in payload, got %v", fields)
	}
}

func TestCreateTaggingPayload(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tags/end-tag/taggings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server)
	href := "https://an.example/people/" + personUUID
	if err := client.CreateTagging("end-tag", href); err != nil {
		t.Fatal(err)
	}

	links := body["_links"].(map[string]interface{})
	person := links["osdi:person"].(map[string]interface{})
	if person["href"] != href {
		t.Errorf("expected person href %s, got %v", href, person["href"])
	}
}

func TestDeleteTagging(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server)
	if err := client.DeleteTagging(server.URL + "/taggings/" + taggingUUID); err != nil {
		t.Fatal(err)
	}
	if method != http.MethodDelete || path != "/taggings/"+taggingUUID {
		t.Errorf("expected DELETE on the self href, got %s %s", method, path)
	}
}
