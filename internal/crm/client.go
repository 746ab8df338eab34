package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/BruksfildServices01/meeting-sync/internal/httpclient"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
)

const defaultAPIVersion = "2021-04-15"

type Config struct {
	HTTP         httpclient.Options
	APIVersion   string
	DefaultToken string
}

// Client cobre os endpoints de contatos e agendamentos do CRM.
type Client struct {
	http         *httpclient.Client
	defaultToken string
}

func New(cfg Config) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}

	opts := cfg.HTTP
	headers := map[string]string{"Version": version}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	return &Client{
		http:         httpclient.New(opts),
		defaultToken: cfg.DefaultToken,
	}
}

func (c *Client) token(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return c.defaultToken
}

// GetContact busca o perfil do contato. token vazio usa o token padrão.
func (c *Client) GetContact(ctx context.Context, contactID, token string) (*Contact, error) {
	var resp contactResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method:    http.MethodGet,
		Path:      "/contacts/" + url.PathEscape(contactID),
		Token:     c.token(token),
		Retryable: true,
	}, &resp)
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, httperr.NotFoundf("contact_not_found", "contact %s: %v", contactID, err)
		}
		return nil, httperr.Upstream("crm_contact_fetch_failed", fmt.Errorf("get contact %s: %w", contactID, err))
	}

	if resp.Contact == nil || resp.Contact.ID == "" {
		return nil, httperr.NotFoundf("contact_not_found", "contact %s missing in response", contactID)
	}
	return resp.Contact, nil
}

// GetAppointments lista os eventos do calendário do contato.
func (c *Client) GetAppointments(ctx context.Context, contactID, token string) ([]Event, error) {
	var resp eventsResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method:    http.MethodGet,
		Path:      "/contacts/" + url.PathEscape(contactID) + "/appointments",
		Token:     c.token(token),
		Retryable: true,
	}, &resp)
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, httperr.NotFoundf("contact_not_found", "appointments of %s: %v", contactID, err)
		}
		return nil, httperr.Upstream("crm_appointments_fetch_failed", fmt.Errorf("get appointments %s: %w", contactID, err))
	}

	if resp.Events == nil {
		return nil, httperr.Upstream("crm_appointments_fetch_failed", fmt.Errorf("get appointments %s: response without events", contactID))
	}
	return *resp.Events, nil
}
