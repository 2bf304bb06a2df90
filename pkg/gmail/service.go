package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"prodboard-backend/internal/triage/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc func(*oauth2.Token) error

// Gateway is the Gmail-backed mail gateway. It implements
// domain.MailGateway for a single triage mailbox.
type Gateway struct {
	clientID     string
	clientSecret string

	accessToken  string
	refreshToken string
	onRefresh    TokenUpdateFunc

	// label applied by MarkProcessed; empty disables labeling
	processedLabelID string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// NewGateway creates a Gateway for the triage mailbox credentials.
func NewGateway(clientID, clientSecret, accessToken, refreshToken, processedLabelID string, onRefresh TokenUpdateFunc) *Gateway {
	return &Gateway{
		clientID:         clientID,
		clientSecret:     clientSecret,
		accessToken:      accessToken,
		refreshToken:     refreshToken,
		onRefresh:        onRefresh,
		processedLabelID: processedLabelID,
	}
}

// service creates a Gmail client with the mailbox token, refreshing it
// through the wrapped token source when needed.
func (g *Gateway) service(ctx context.Context) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  g.accessToken,
		RefreshToken: g.refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if g.refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: g.onRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// GetMessage fetches one message in full format and flattens it into the
// gateway-neutral inbound form.
func (g *Gateway) GetMessage(ctx context.Context, sourceID string) (*domain.InboundMessage, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, &domain.GatewayError{Op: "get_message", Err: err}
	}

	msg, err := srv.Users.Messages.Get("me", sourceID).Format("full").Do()
	if err != nil {
		return nil, &domain.GatewayError{Op: "get_message", Err: err}
	}

	return convertGmailMessage(msg), nil
}

// SendReply sends a threaded plain-text reply and returns the sent
// message id.
func (g *Gateway) SendReply(ctx context.Context, sourceID, threadID, text string, to, cc []string) (string, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return "", &domain.GatewayError{Op: "send_reply", Err: err}
	}

	// Pull headers from the original so the reply threads correctly
	var subject, messageID string
	if orig, err := srv.Users.Messages.Get("me", sourceID).Format("metadata").
		MetadataHeaders("Subject", "Message-ID").Do(); err == nil {
		subject = getHeader(orig.Payload.Headers, "Subject")
		messageID = getHeader(orig.Payload.Headers, "Message-ID")
	}
	if subject != "" && !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	var raw bytes.Buffer
	raw.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	if len(cc) > 0 {
		raw.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(cc, ", ")))
	}
	if subject != "" {
		encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(subject)))
		raw.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	}
	if messageID != "" {
		raw.WriteString(fmt.Sprintf("In-Reply-To: %s\r\n", messageID))
		raw.WriteString(fmt.Sprintf("References: %s\r\n", messageID))
	}
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	raw.WriteString(text)
	raw.WriteString("\r\n")

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw.Bytes()),
		ThreadId: threadID,
	}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return "", &domain.GatewayError{Op: "send_reply", Err: err}
	}

	return sent.Id, nil
}

// MarkProcessed applies the processed label and clears UNREAD so the
// message is not picked up again by mailbox polling.
func (g *Gateway) MarkProcessed(ctx context.Context, sourceID string) error {
	srv, err := g.service(ctx)
	if err != nil {
		return &domain.GatewayError{Op: "mark_processed", Err: err}
	}

	modifyReq := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}
	if g.processedLabelID != "" {
		modifyReq.AddLabelIds = []string{g.processedLabelID}
	}

	_, err = srv.Users.Messages.Modify("me", sourceID, modifyReq).Do()
	if err != nil {
		return &domain.GatewayError{Op: "mark_processed", Err: err}
	}

	return nil
}

// ListUnprocessed lists inbox messages that do not carry the processed
// label yet, newest first. Used by the notification service to catch up
// after a watch event.
func (g *Gateway) ListUnprocessed(ctx context.Context, limit int64) ([]string, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, &domain.GatewayError{Op: "list_unprocessed", Err: err}
	}

	q := "in:inbox"
	if g.processedLabelID != "" {
		q += " -label:" + g.processedLabelID
	}

	if limit <= 0 {
		limit = 20
	}
	resp, err := srv.Users.Messages.List("me").Q(q).MaxResults(limit).Do()
	if err != nil {
		return nil, &domain.GatewayError{Op: "list_unprocessed", Err: err}
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Watch sets up push notifications for the triage mailbox
func (g *Gateway) Watch(ctx context.Context, topicName string) error {
	srv, err := g.service(ctx)
	if err != nil {
		return err
	}

	// Stop any existing watch first to avoid "Only one user push
	// notification client allowed" errors.
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}

	log.Printf("[Gmail] Starting watch on topic: %s", topicName)
	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started. Expiration: %d, HistoryId: %d", resp.Expiration, resp.HistoryId)

	return nil
}

// Stop stops push notifications for the triage mailbox
func (g *Gateway) Stop(ctx context.Context) error {
	srv, err := g.service(ctx)
	if err != nil {
		return err
	}

	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}

	return nil
}

// Helper functions

func convertGmailMessage(msg *gmail.Message) *domain.InboundMessage {
	htmlBody, plainBody := getBodies(msg.Payload)

	bodyText := plainBody
	if bodyText == "" && htmlBody != "" {
		bodyText = stripHTML(htmlBody)
	}

	return &domain.InboundMessage{
		SourceID:   msg.Id,
		ThreadID:   msg.ThreadId,
		From:       getHeader(msg.Payload.Headers, "From"),
		Subject:    getHeader(msg.Payload.Headers, "Subject"),
		BodyText:   bodyText,
		BodyHTML:   htmlBody,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func getBodies(payload *gmail.MessagePart) (html, plain string) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			if payload.MimeType == "text/html" {
				return string(data), ""
			}
			return "", string(data)
		}
	}

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/html":
						html = string(data)
					case "text/plain":
						plain = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	return html, plain
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return strings.Join(strings.Fields(s), " ")
}
