// internal/airtable/client.go
package airtable

import (
    "bytes"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strconv"

    appErrors "github.com/unclebandit/rollingemailer-backend/internal/errors"
)

const DefaultBaseURL = "https://api.airtable.com/v0"

// Record is one Airtable row. Field values are left as decoded JSON since
// Airtable columns mix strings, numbers, booleans and arrays.
type Record struct {
    ID     string                 `json:"id"`
    Fields map[string]interface{} `json:"fields"`
}

// QueryOptions narrows a table query. Zero values mean "not set".
type QueryOptions struct {
    View       string
    Formula    string
    MaxRecords int
}

// Client talks to the Airtable REST API for one base.
type Client struct {
    BaseURL    string
    APIKey     string
    BaseID     string
    HTTPClient *http.Client
}

func NewClient(apiKey, baseID string) *Client {
    return &Client{
        BaseURL:    DefaultBaseURL,
        APIKey:     apiKey,
        BaseID:     baseID,
        HTTPClient: http.DefaultClient,
    }
}

type recordsPage struct {
    Records []Record `json:"records"`
}

// Query fetches records from a table in the order the view returns them.
func (c *Client) Query(table string, opts QueryOptions) ([]Record, error) {
    params := url.Values{}
    if opts.View != "" {
        params.Set("view", opts.View)
    }
    if opts.Formula != "" {
        params.Set("filterByFormula", opts.Formula)
    }
    if opts.MaxRecords > 0 {
        params.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
    }

    endpoint := fmt.Sprintf("%s/%s/%s", c.BaseURL, c.BaseID, url.PathEscape(table))
    if encoded := params.Encode(); encoded != "" {
        endpoint += "?" + encoded
    }

    req, err := http.NewRequest(http.MethodGet, endpoint, nil)
    if err != nil {
        return nil, err
    }
    req.Header.Set("Authorization", "Bearer "+c.APIKey)

    res, err := c.HTTPClient.Do(req)
    if err != nil {
        return nil, err
    }
    defer res.Body.Close()

    if res.StatusCode != http.StatusOK {
        return nil, appErrors.NewFetchError("airtable", endpoint, res.StatusCode)
    }

    var page recordsPage
    if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
        return nil, err
    }
    return page.Records, nil
}

// Update patches fields on one record. Typecast lets Airtable coerce values
// into the column types (needed for linked-record arrays).
func (c *Client) Update(table, recordID string, fields map[string]interface{}) error {
    endpoint := fmt.Sprintf("%s/%s/%s/%s", c.BaseURL, c.BaseID, url.PathEscape(table), recordID)

    payload := map[string]interface{}{
        "fields":   fields,
        "typecast": true,
    }
    body, err := json.Marshal(payload)
    if err != nil {
        return err
    }

    req, err := http.NewRequest(http.MethodPatch, endpoint, bytes.NewReader(body))
    if err != nil {
        return err
    }
    req.Header.Set("Authorization", "Bearer "+c.APIKey)
    req.Header.Set("Content-Type", "application/json")

    res, err := c.HTTPClient.Do(req)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    if res.StatusCode < 200 || res.StatusCode > 299 {
        return appErrors.NewFetchError("airtable", endpoint, res.StatusCode)
    }
    return nil
}
