package outlook

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/mailtrail/internal/logger"
)

// Message represents a mail item from the Outlook REST API.
type Message struct {
	ID                         string       `json:"Id"`
	ChangeKey                  string       `json:"ChangeKey"`
	ParentFolderID             string       `json:"ParentFolderId"`
	ConversationID             string       `json:"ConversationId"`
	Subject                    string       `json:"Subject"`
	BodyPreview                string       `json:"BodyPreview"`
	Body                       *MessageBody `json:"Body,omitempty"`
	Importance                 string       `json:"Importance"`
	Categories                 []string     `json:"Categories"`
	HasAttachments             bool         `json:"HasAttachments"`
	IsDraft                    bool         `json:"IsDraft"`
	IsRead                     bool         `json:"IsRead"`
	IsDeliveryReceiptRequested bool         `json:"IsDeliveryReceiptRequested"`
	IsReadReceiptRequested     bool         `json:"IsReadReceiptRequested"`
	DateTimeCreated            string       `json:"DateTimeCreated"`
	DateTimeLastModified       string       `json:"DateTimeLastModified"`
	DateTimeReceived           string       `json:"DateTimeReceived"`
	DateTimeSent               string       `json:"DateTimeSent"`
	From                       *Recipient   `json:"From,omitempty"`
	Sender                     *Recipient   `json:"Sender,omitempty"`
	ToRecipients               []Recipient  `json:"ToRecipients"`
	CcRecipients               []Recipient  `json:"CcRecipients"`
	BccRecipients              []Recipient  `json:"BccRecipients"`
	ReplyTo                    []Recipient  `json:"ReplyTo"`
	WebLink                    string       `json:"WebLink"`
}

// MessageBody represents the body of a message.
type MessageBody struct {
	ContentType string `json:"ContentType"`
	Content     string `json:"Content"`
}

// Recipient represents a message sender or recipient.
type Recipient struct {
	EmailAddress struct {
		Name    string `json:"Name"`
		Address string `json:"Address"`
	} `json:"EmailAddress"`
}

// FormatRecipients formats a list of recipients for display.
func FormatRecipients(recipients []Recipient) string {
	names := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.EmailAddress.Name != "" {
			names = append(names, fmt.Sprintf("%s <%s>",
				r.EmailAddress.Name, r.EmailAddress.Address))
		} else if r.EmailAddress.Address != "" {
			names = append(names, r.EmailAddress.Address)
		}
	}
	return strings.Join(names, ", ")
}

// messageSelectFields restricts message responses to the headers and flags
// needed to describe a message without fetching its body.
const messageSelectFields = "BccRecipients,BodyPreview,Categories,CcRecipients," +
	"ChangeKey,ConversationId,DateTimeCreated,DateTimeLastModified," +
	"DateTimeReceived,DateTimeSent,From,HasAttachments,Id,Importance," +
	"IsDeliveryReceiptRequested,IsDraft,IsRead,IsReadReceiptRequested," +
	"ParentFolderId,ReplyTo,Sender,Subject,ToRecipients,WebLink"

// MessageQuery identifies the message referenced by an activity event.
type MessageQuery struct {
	// Credential replaces the client's cached credential when non-nil.
	Credential Credential
	// Mailbox replaces the client's cached mailbox identity when non-empty.
	Mailbox string

	// ActivityItemID is the message identifier carried by an activity
	// event. It is treated as opaque and forwarded as-is.
	ActivityItemID string

	// IncludeBody requests the complete message, body included, instead
	// of the restricted header field set.
	IncludeBody bool
}

// buildMessageURL constructs the message detail URL for a query.
func buildMessageURL(baseURL, mailbox string, q MessageQuery) string {
	requestURL := baseURL + "/Users('" + url.PathEscape(mailbox) + "')/Messages/" +
		url.PathEscape(q.ActivityItemID)
	if !q.IncludeBody {
		requestURL += "?$select=" + messageSelectFields
	}
	return requestURL
}

// GetMailActivityDetails retrieves the message an activity event refers to.
func (c *Client) GetMailActivityDetails(ctx context.Context, q MessageQuery) (*Message, error) {
	cred, mailbox, err := c.resolveSession(q.Credential, q.Mailbox)
	if err != nil {
		return nil, err
	}

	requestURL := buildMessageURL(c.baseURL, mailbox, q)
	logger.Debug("outlook: fetching message %s for %s", q.ActivityItemID, mailbox)

	var msg Message
	if err := c.getJSON(ctx, requestURL, cred, "", &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
