// internal/actionnetwork/client.go
package actionnetwork

import (
    "bytes"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "regexp"
    "time"

    appErrors "github.com/unclebandit/rollingemailer-backend/internal/errors"
    "github.com/unclebandit/rollingemailer-backend/internal/model"
)

const DefaultBaseURL = "https://actionnetwork.org/api/v2/"

var uuidRegex = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Client talks to the Action Network OSDI API. The API key is explicit
// constructor configuration, never read from the environment here.
type Client struct {
    BaseURL    string
    APIKey     string
    HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
    return &Client{
        BaseURL:    DefaultBaseURL,
        APIKey:     apiKey,
        HTTPClient: http.DefaultClient,
    }
}

// halLink is one entry of an OSDI _links object.
type halLink struct {
    Href string `json:"href"`
}

type taggingResource struct {
    ModifiedDate time.Time          `json:"modified_date"`
    Links        map[string]halLink `json:"_links"`
}

type taggingsPage struct {
    Embedded map[string][]taggingResource `json:"_embedded"`
    Links    map[string]halLink           `json:"_links"`
}

type personResource struct {
    CustomFields map[string]interface{} `json:"custom_fields"`
    Links        map[string]halLink     `json:"_links"`
}

func (c *Client) do(method, url string, body interface{}) (*http.Response, error) {
    var reader io.Reader
    if body != nil {
        buf, err := json.Marshal(body)
        if err != nil {
            return nil, err
        }
        reader = bytes.NewReader(buf)
    }

    req, err := http.NewRequest(method, url, reader)
    if err != nil {
        return nil, err
    }
    req.Header.Set("OSDI-API-Token", c.APIKey)
    req.Header.Set("Content-Type", "application/json")

    return c.HTTPClient.Do(req)
}

// ListTaggings fetches every tagging currently on the tag, following the
// HAL next links until the last page.
func (c *Client) ListTaggings(tagID string) ([]model.Tagging, error) {
    url := fmt.Sprintf("%stags/%s/taggings", c.BaseURL, tagID)
    taggings := []model.Tagging{}

    for url != "" {
        res, err := c.do(http.MethodGet, url, nil)
        if err != nil {
            return nil, err
        }
        if res.StatusCode != http.StatusOK {
            res.Body.Close()
            return nil, appErrors.NewFetchError("action_network", url, res.StatusCode)
        }

        var page taggingsPage
        if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
            res.Body.Close()
            return nil, err
        }
        res.Body.Close()

        for _, raw := range page.Embedded["osdi:taggings"] {
            tagging, err := parseTagging(raw)
            if err != nil {
                return nil, err
            }
            taggings = append(taggings, tagging)
        }

        next, ok := page.Links["next"]
        if !ok {
            break
        }
        url = next.Href
    }

    return taggings, nil
}

func parseTagging(raw taggingResource) (model.Tagging, error) {
    self, ok := raw.Links["self"]
    if !ok {
        return model.Tagging{}, appErrors.NewDataIntegrityError("_links.self", "tagging has no self link")
    }
    person, ok := raw.Links["osdi:person"]
    if !ok {
        return model.Tagging{}, appErrors.NewDataIntegrityError("_links.osdi:person", "tagging has no person link")
    }
    personID := lastUUID(person.Href)
    if personID == "" {
        return model.Tagging{}, appErrors.NewDataIntegrityError("_links.osdi:person", "person link has no UUID")
    }
    return model.Tagging{
        PersonID:   personID,
        SelfHref:   self.Href,
        ModifiedAt: raw.ModifiedDate,
    }, nil
}

// GetPerson fetches one person record with its custom fields.
func (c *Client) GetPerson(id string) (*model.Person, error) {
    url := fmt.Sprintf("%speople/%s", c.BaseURL, id)
    res, err := c.do(http.MethodGet, url, nil)
    if err != nil {
        return nil, err
    }
    defer res.Body.Close()

    if res.StatusCode != http.StatusOK {
        return nil, appErrors.NewFetchError("action_network", url, res.StatusCode)
    }

    var raw personResource
    if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
        return nil, err
    }

    self, ok := raw.Links["self"]
    if !ok {
        return nil, appErrors.NewDataIntegrityError("_links.self", "person has no self link")
    }

    return &model.Person{
        ID:           lastUUID(self.Href),
        SelfHref:     self.Href,
        CustomFields: raw.CustomFields,
    }, nil
}

// UpdatePerson writes custom fields back to a person record.
func (c *Client) UpdatePerson(id string, customFields map[string]interface{}) error {
    url := fmt.Sprintf("%speople/%s", c.BaseURL, id)
    payload := map[string]interface{}{"custom_fields": customFields}

    res, err := c.do(http.MethodPut, url, payload)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    if res.StatusCode < 200 || res.StatusCode > 299 {
        return appErrors.NewFetchError("action_network", url, res.StatusCode)
    }
    return nil
}

// CreateTagging adds the tag to the person referenced by href.
func (c *Client) CreateTagging(tagID, personHref string) error {
    url := fmt.Sprintf("%stags/%s/taggings", c.BaseURL, tagID)
    payload := map[string]interface{}{
        "_links": map[string]interface{}{
            "osdi:person": map[string]string{"href": personHref},
        },
    }

    res, err := c.do(http.MethodPost, url, payload)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    if res.StatusCode < 200 || res.StatusCode > 299 {
        return appErrors.NewFetchError("action_network", url, res.StatusCode)
    }
    return nil
}

// DeleteTagging removes a tagging by its self href.
func (c *Client) DeleteTagging(selfHref string) error {
    res, err := c.do(http.MethodDelete, selfHref, nil)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    if res.StatusCode < 200 || res.StatusCode > 299 {
        return appErrors.NewFetchError("action_network", selfHref, res.StatusCode)
    }
    return nil
}

func lastUUID(href string) string {
    matches := uuidRegex.FindAllString(href, -1)
    if len(matches) == 0 {
        return ""
    }
    return matches[len(matches)-1]
}
