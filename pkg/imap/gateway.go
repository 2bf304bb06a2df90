package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"prodboard-backend/internal/triage/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// triagedFlag is the custom IMAP keyword set by MarkProcessed
const triagedFlag = "Triaged"

// Config configuration for the IMAP gateway
type Config struct {
	Email       string
	Password    string
	Server      string // host:port
	DialTimeout time.Duration
}

// Gateway is an IMAP-backed mail gateway for mailboxes that are not on
// Gmail. Source ids are IMAP UIDs in the INBOX. Replies cannot be sent
// over IMAP; response outcomes require the Gmail gateway.
type Gateway struct {
	config    Config
	client    *client.Client
	mu        sync.Mutex
	connected bool
}

// NewGateway creates a new IMAP gateway
func NewGateway(cfg Config) *Gateway {
	return &Gateway{config: cfg}
}

// Connect connects to the IMAP server and selects INBOX
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectLocked()
}

func (g *Gateway) connectLocked() error {
	if g.connected {
		return nil
	}

	log.Printf("[IMAP] Connecting to %s", g.config.Server)

	timeout := g.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", g.config.Server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(g.config.Email, g.config.Password); err != nil {
		imapClient.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	if _, err := imapClient.Select("INBOX", false); err != nil {
		imapClient.Logout()
		return fmt.Errorf("failed to select INBOX: %w", err)
	}

	g.client = imapClient
	g.connected = true
	return nil
}

// GetMessage fetches one message by UID and flattens it into the
// gateway-neutral inbound form.
func (g *Gateway) GetMessage(ctx context.Context, sourceID string) (*domain.InboundMessage, error) {
	uid, err := parseUID(sourceID)
	if err != nil {
		return nil, &domain.GatewayError{Op: "get_message", Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.connectLocked(); err != nil {
		return nil, &domain.GatewayError{Op: "get_message", Err: err}
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- g.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		g.handleDisconnect()
		return nil, &domain.GatewayError{Op: "get_message", Err: err}
	}
	if msg == nil {
		return nil, &domain.GatewayError{Op: "get_message", Err: fmt.Errorf("message %s not found", sourceID)}
	}

	return parseMessage(sourceID, msg, section), nil
}

// SendReply is not supported over IMAP: sending requires an SMTP or
// Gmail transport.
func (g *Gateway) SendReply(ctx context.Context, sourceID, threadID, text string, to, cc []string) (string, error) {
	return "", &domain.GatewayError{Op: "send_reply", Err: errors.New("sending replies is not supported over IMAP")}
}

// MarkProcessed sets \Seen plus a custom Triaged keyword on the message.
func (g *Gateway) MarkProcessed(ctx context.Context, sourceID string) error {
	uid, err := parseUID(sourceID)
	if err != nil {
		return &domain.GatewayError{Op: "mark_processed", Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.connectLocked(); err != nil {
		return &domain.GatewayError{Op: "mark_processed", Err: err}
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag, triagedFlag}

	if err := g.client.UidStore(seqSet, item, flags, nil); err != nil {
		g.handleDisconnect()
		return &domain.GatewayError{Op: "mark_processed", Err: err}
	}

	return nil
}

// ListUnprocessed returns the UIDs of unseen INBOX messages.
func (g *Gateway) ListUnprocessed(ctx context.Context, limit int64) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.connectLocked(); err != nil {
		return nil, &domain.GatewayError{Op: "list_unprocessed", Err: err}
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag, triagedFlag}

	uids, err := g.client.UidSearch(criteria)
	if err != nil {
		g.handleDisconnect()
		return nil, &domain.GatewayError{Op: "list_unprocessed", Err: err}
	}

	if limit > 0 && int64(len(uids)) > limit {
		uids = uids[:limit]
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids, nil
}

// Close logs out from the IMAP server
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		g.client.Logout()
		g.client = nil
	}
	g.connected = false
}

func (g *Gateway) handleDisconnect() {
	g.connected = false
	if g.client != nil {
		g.client.Logout()
		g.client = nil
	}
}

func parseUID(sourceID string) (uint32, error) {
	uid, err := strconv.ParseUint(sourceID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid IMAP source id %q: %w", sourceID, err)
	}
	return uint32(uid), nil
}

func parseMessage(sourceID string, msg *imap.Message, section *imap.BodySectionName) *domain.InboundMessage {
	inbound := &domain.InboundMessage{SourceID: sourceID}

	if msg.Envelope != nil {
		inbound.Subject = msg.Envelope.Subject
		inbound.ReceivedAt = msg.Envelope.Date
		// Threads are approximated by Message-ID over IMAP
		inbound.ThreadID = msg.Envelope.MessageId

		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			if from.PersonalName != "" {
				inbound.From = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
			} else {
				inbound.From = from.Address()
			}
		}
	}

	bodyReader := msg.GetBody(section)
	if bodyReader == nil {
		return inbound
	}

	mr, err := mail.CreateReader(bodyReader)
	if err != nil {
		log.Printf("[IMAP] Failed to create mail reader for %s: %v", sourceID, err)
		return inbound
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[IMAP] Failed to read part of %s: %v", sourceID, err)
			break
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			if strings.HasPrefix(ct, "text/html") {
				inbound.BodyHTML = string(body)
			} else if strings.HasPrefix(ct, "text/plain") {
				inbound.BodyText = string(body)
			}
		}
	}

	return inbound
}
