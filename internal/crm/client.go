// Package crm provides a GoHighLevel contacts client.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brightline-digital/concierge/internal/phone"
)

// Client is the GoHighLevel REST client.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	httpClient *http.Client
}

// NewClient creates a new GoHighLevel client.
func NewClient(baseURL, apiKey, locationID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		locationID: locationID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Contact is a CRM contact record.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ContactRequest is the create/update payload.
type ContactRequest struct {
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	LocationID  string            `json:"locationId,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Source      string            `json:"source,omitempty"`
	CustomField map[string]string `json:"customField,omitempty"`
}

// Lead is the normalized upsert input.
type Lead struct {
	Name        string
	Phone       string // any US format; normalized before lookup
	Email       string
	Tags        []string
	Source      string
	CustomField map[string]string
}

type lookupResponse struct {
	Contacts []Contact `json:"contacts"`
}

type contactEnvelope struct {
	Contact Contact `json:"contact"`
}

// LookupContactByPhone finds a contact by E.164 phone number. Returns nil when
// no contact matches.
func (c *Client) LookupContactByPhone(ctx context.Context, e164 string) (*Contact, error) {
	u := fmt.Sprintf("%s/contacts/lookup?phone=%s", c.baseURL, url.QueryEscape(e164))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CRM lookup error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result lookupResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Contacts) == 0 {
		return nil, nil
	}
	return &result.Contacts[0], nil
}

// CreateContact creates a new contact and returns it.
func (c *Client) CreateContact(ctx context.Context, req *ContactRequest) (*Contact, error) {
	if req.LocationID == "" {
		req.LocationID = c.locationID
	}
	var result contactEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/contacts/", req, &result); err != nil {
		return nil, err
	}
	return &result.Contact, nil
}

// UpdateContact updates an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contactID string, req *ContactRequest) error {
	return c.doJSON(ctx, http.MethodPut, "/contacts/"+contactID, req, nil)
}

// AddNote appends a note to a contact.
func (c *Client) AddNote(ctx context.Context, contactID, body string) error {
	payload := map[string]string{"body": body}
	return c.doJSON(ctx, http.MethodPost, "/contacts/"+contactID+"/notes", payload, nil)
}

// UpsertLead creates or updates a contact keyed by phone number. Returns the
// contact id and whether a new contact was created.
func (c *Client) UpsertLead(ctx context.Context, lead Lead) (string, bool, error) {
	e164, err := phone.E164US(lead.Phone)
	if err != nil {
		return "", false, err
	}

	existing, err := c.LookupContactByPhone(ctx, e164)
	if err != nil {
		return "", false, fmt.Errorf("lead lookup failed: %w", err)
	}

	first, last := splitName(lead.Name)
	req := &ContactRequest{
		FirstName:   first,
		LastName:    last,
		Email:       lead.Email,
		Phone:       e164,
		Tags:        lead.Tags,
		Source:      lead.Source,
		CustomField: lead.CustomField,
	}

	if existing != nil {
		if err := c.UpdateContact(ctx, existing.ID, req); err != nil {
			return "", false, fmt.Errorf("lead update failed: %w", err)
		}
		return existing.ID, false, nil
	}

	created, err := c.CreateContact(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("lead create failed: %w", err)
	}
	return created.ID, true, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("CRM API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func splitName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
