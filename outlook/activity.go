package outlook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/mailtrail/internal/logger"
)

// preferActivityAccess opts the request into the mailbox activity behaviour.
// The Activities endpoint rejects requests without it.
const preferActivityAccess = `exchange.behavior="ActivityAccess"`

// Page size limits enforced before any request is made.
const (
	defaultMaxResults = 500
	maxResultsLimit   = 1000
)

// ActivityType identifies the kind of mailbox activity event.
type ActivityType string

// Activity types recorded by Exchange Online.
const (
	ActivityDelete                  ActivityType = "Delete"
	ActivityForward                 ActivityType = "Forward"
	ActivityLinkClicked             ActivityType = "LinkClicked"
	ActivityMarkAsRead              ActivityType = "MarkAsRead"
	ActivityMarkAsUnread            ActivityType = "MarkAsUnread"
	ActivityMessageDelivered        ActivityType = "MessageDelivered"
	ActivityMessageSent             ActivityType = "MessageSent"
	ActivityMove                    ActivityType = "Move"
	ActivityOpenedAnAttachment      ActivityType = "OpenedAnAttachment"
	ActivityReadingPaneDisplayEnd   ActivityType = "ReadingPaneDisplayEnd"
	ActivityReadingPaneDisplayStart ActivityType = "ReadingPaneDisplayStart"
	ActivityReply                   ActivityType = "Reply"
	ActivitySearchResult            ActivityType = "SearchResult"
	ActivityServerLogon             ActivityType = "ServerLogon"
)

// ActivityTypes returns every recognised activity type.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityDelete,
		ActivityForward,
		ActivityLinkClicked,
		ActivityMarkAsRead,
		ActivityMarkAsUnread,
		ActivityMessageDelivered,
		ActivityMessageSent,
		ActivityMove,
		ActivityOpenedAnAttachment,
		ActivityReadingPaneDisplayEnd,
		ActivityReadingPaneDisplayStart,
		ActivityReply,
		ActivitySearchResult,
		ActivityServerLogon,
	}
}

// Valid reports whether t is a recognised activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityDelete, ActivityForward, ActivityLinkClicked, ActivityMarkAsRead,
		ActivityMarkAsUnread, ActivityMessageDelivered, ActivityMessageSent,
		ActivityMove, ActivityOpenedAnAttachment, ActivityReadingPaneDisplayEnd,
		ActivityReadingPaneDisplayStart, ActivityReply, ActivitySearchResult,
		ActivityServerLogon:
		return true
	default:
		return false
	}
}

// AppType identifies the client application class that produced an event.
type AppType string

// Application classes recorded by Exchange Online.
const (
	AppExchange   AppType = "Exchange"
	AppIMAP4      AppType = "IMAP4"
	AppLync       AppType = "Lync"
	AppMacMail    AppType = "MacMail"
	AppMacOutlook AppType = "MacOutlook"
	AppMobile     AppType = "Mobile"
	AppOutlook    AppType = "Outlook"
	AppPOP3       AppType = "POP3"
	AppWeb        AppType = "Web"
)

// AppTypes returns every recognised application class.
func AppTypes() []AppType {
	return []AppType{
		AppExchange,
		AppIMAP4,
		AppLync,
		AppMacMail,
		AppMacOutlook,
		AppMobile,
		AppOutlook,
		AppPOP3,
		AppWeb,
	}
}

// Valid reports whether a is a recognised application class.
func (a AppType) Valid() bool {
	switch a {
	case AppExchange, AppIMAP4, AppLync, AppMacMail, AppMacOutlook,
		AppMobile, AppOutlook, AppPOP3, AppWeb:
		return true
	default:
		return false
	}
}

// Activity is a single mailbox activity event. Timestamps are kept as the
// service renders them and parsed only where a caller needs them.
type Activity struct {
	Timestamp            string       `json:"TimeStamp"`
	ActivityIDType       ActivityType `json:"ActivityIdType"`
	ActivityCreationTime string       `json:"ActivityCreationTime"`
	ActivityItemID       string       `json:"ActivityItemId"`
	AppIDType            AppType      `json:"AppIdType"`
	ClientSessionID      string       `json:"ClientSessionId"`

	// CustomProperties is the event's property bag, passed through
	// unmodified. Its shape varies by activity type.
	CustomProperties json.RawMessage `json:"CustomProperties,omitempty"`
}

// activitySelectFields restricts activity responses to the fields above.
const activitySelectFields = "TimeStamp,ActivityIdType,ActivityCreationTime," +
	"ActivityItemId,AppIdType,ClientSessionId,CustomProperties"

// ActivityQuery selects which mailbox activity events to retrieve.
//
// Zero values mean "use the default": a nil Credential and an empty Mailbox
// reuse the client's cached session, a zero End means now, a zero Start means
// one calendar month before End, and a zero MaxResults means 500.
type ActivityQuery struct {
	// Credential replaces the client's cached credential when non-nil.
	Credential Credential
	// Mailbox replaces the client's cached mailbox identity when non-empty.
	Mailbox string

	// Start and End bound the query window, inclusive on both ends.
	Start time.Time
	End   time.Time

	// MaxResults caps the page size. Valid range is 1 to 1000.
	MaxResults int
	// StartFrom skips that many events from the start of the result set.
	// Values below one leave the offset unset.
	StartFrom int

	// ActivityType restricts results to one activity type.
	ActivityType ActivityType
	// AppType restricts results to one application class.
	AppType AppType
}

// normalised returns a copy of q with defaults applied, or a validation
// error when a field is out of range. No network I/O happens here.
func (q ActivityQuery) normalised(now time.Time) (ActivityQuery, error) {
	if q.MaxResults == 0 {
		q.MaxResults = defaultMaxResults
	}
	if q.MaxResults < 1 || q.MaxResults > maxResultsLimit {
		return q, fmt.Errorf("%w: max results must be between 1 and %d, got %d",
			ErrValidation, maxResultsLimit, q.MaxResults)
	}

	if q.End.IsZero() {
		q.End = now
	}
	if q.Start.IsZero() {
		q.Start = q.End.AddDate(0, -1, 0)
	}

	if q.ActivityType != "" && !q.ActivityType.Valid() {
		return q, fmt.Errorf("%w: unknown activity type %q", ErrValidation, q.ActivityType)
	}
	if q.AppType != "" && !q.AppType.Valid() {
		return q, fmt.Errorf("%w: unknown app type %q", ErrValidation, q.AppType)
	}

	return q, nil
}

// odataTimeFormat renders timestamps the way OData filter literals expect.
const odataTimeFormat = "2006-01-02T15:04:05Z"

func formatODataTime(t time.Time) string {
	return t.UTC().Format(odataTimeFormat)
}

// buildActivitiesURL constructs the Activities query URL for a normalised
// query. Query values are escaped with %20 for spaces; OData endpoints do
// not reliably accept the form-encoded plus sign.
func buildActivitiesURL(baseURL, mailbox string, q ActivityQuery) string {
	filter := fmt.Sprintf("TimeStamp ge %s and TimeStamp le %s",
		formatODataTime(q.Start), formatODataTime(q.End))
	if q.ActivityType != "" {
		filter += fmt.Sprintf(" and ActivityIdType eq '%s'", q.ActivityType)
	}
	if q.AppType != "" {
		filter += fmt.Sprintf(" and AppIdType eq '%s'", q.AppType)
	}

	var sb strings.Builder
	sb.WriteString(baseURL)
	sb.WriteString("/Users('")
	sb.WriteString(url.PathEscape(mailbox))
	sb.WriteString("')/Activities")
	sb.WriteString("?$orderby=")
	sb.WriteString(url.PathEscape("TimeStamp asc"))
	sb.WriteString("&$select=")
	sb.WriteString(activitySelectFields)
	sb.WriteString("&$filter=")
	sb.WriteString(url.PathEscape(filter))
	sb.WriteString("&$top=")
	sb.WriteString(strconv.Itoa(q.MaxResults))
	if q.StartFrom > 0 {
		sb.WriteString("&$skip=")
		sb.WriteString(strconv.Itoa(q.StartFrom))
	}
	return sb.String()
}

// activitiesResponse is the service's envelope for activity queries.
type activitiesResponse struct {
	Value []Activity `json:"value"`
}

// GetMailActivity retrieves one page of mailbox activity events, ordered by
// event time ascending.
func (c *Client) GetMailActivity(ctx context.Context, q ActivityQuery) ([]Activity, error) {
	cred, mailbox, err := c.resolveSession(q.Credential, q.Mailbox)
	if err != nil {
		return nil, err
	}

	q, err = q.normalised(time.Now())
	if err != nil {
		return nil, err
	}

	requestURL := buildActivitiesURL(c.baseURL, mailbox, q)
	logger.Debug("outlook: fetching activities for %s", mailbox)

	var page activitiesResponse
	if err := c.getJSON(ctx, requestURL, cred, preferActivityAccess, &page); err != nil {
		return nil, err
	}

	logger.Debug("outlook: fetched %d activities", len(page.Value))
	return page.Value, nil
}

// GetAllMailActivity retrieves every activity event in the query window,
// requesting successive pages until the service returns a short page. The
// query window is fixed once at the start so pages never drift.
func (c *Client) GetAllMailActivity(ctx context.Context, q ActivityQuery) ([]Activity, error) {
	cred, mailbox, err := c.resolveSession(q.Credential, q.Mailbox)
	if err != nil {
		return nil, err
	}

	q, err = q.normalised(time.Now())
	if err != nil {
		return nil, err
	}

	var all []Activity
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		requestURL := buildActivitiesURL(c.baseURL, mailbox, q)
		logger.Debug("outlook: fetching activity page at offset %d", q.StartFrom)

		var page activitiesResponse
		if err := c.getJSON(ctx, requestURL, cred, preferActivityAccess, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Value...)
		if len(page.Value) < q.MaxResults {
			break
		}
		q.StartFrom += q.MaxResults
	}

	logger.Debug("outlook: fetched %d activities in total", len(all))
	return all, nil
}
