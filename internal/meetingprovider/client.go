package meetingprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/BruksfildServices01/meeting-sync/internal/httpclient"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
)

type Config struct {
	HTTP   httpclient.Options
	Token  string
	UserID string
}

// Client cria reuniões e inscreve participantes no provedor de vídeo.
type Client struct {
	http   *httpclient.Client
	token  string
	userID string
}

func New(cfg Config) *Client {
	userID := cfg.UserID
	if userID == "" {
		userID = "me"
	}
	return &Client{
		http:   httpclient.New(cfg.HTTP),
		token:  cfg.Token,
		userID: userID,
	}
}

// CreateMeeting só é repetida em falha transitória porque leva Idempotency-Key.
func (c *Client) CreateMeeting(ctx context.Context, req CreateMeetingRequest, idempotencyKey string) (*Meeting, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var out Meeting
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/users/" + url.PathEscape(c.userID) + "/meetings",
		Token:     c.token,
		Headers:   headers,
		Body:      req,
		Retryable: idempotencyKey != "",
	}, &out)
	if err != nil {
		return nil, httperr.Upstream("meeting_create_failed", fmt.Errorf("create meeting: %w", err))
	}
	if out.ID == 0 {
		return nil, httperr.Upstream("meeting_create_failed", fmt.Errorf("create meeting: response without id"))
	}
	return &out, nil
}

// AddRegistrant é best-effort: sem retry.
func (c *Client) AddRegistrant(ctx context.Context, meetingID int64, req RegistrantRequest) (*RegistrantResponse, error) {
	var out RegistrantResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/meetings/" + strconv.FormatInt(meetingID, 10) + "/registrants",
		Token:  c.token,
		Body:   req,
	}, &out)
	if err != nil {
		return nil, httperr.Upstream("meeting_registrant_failed", fmt.Errorf("add registrant: %w", err))
	}
	return &out, nil
}
