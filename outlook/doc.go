// Package outlook retrieves mailbox activity logs from Exchange Online via
// the Outlook REST API v1.0.
//
// This package provides:
//   - A Client that caches the last credential and mailbox identity, so a
//     sequence of calls against the same mailbox configures them once
//   - Activity queries with time windows, type filters, and offset paging
//   - Message detail lookup for the item an activity event refers to
//   - Rate limiting and typed error handling for service responses
//
// The API root is https://outlook.office365.com/api/v1.0. Activity requests
// carry the Prefer: exchange.behavior="ActivityAccess" header; without it
// the Activities endpoint is not served.
//
// # Authentication
//
// Three credential forms are supported:
//   - BasicCredential: mailbox identity and secret via HTTP basic auth
//   - TokenCredential: a static OAuth2 bearer token obtained out of band
//   - AppCredential: an Azure AD app registration using the client
//     credentials flow against login.microsoftonline.com
//
// # Query Semantics
//
// Activity queries default to the last calendar month ending now, ordered by
// event time ascending, 500 events per page with a hard cap of 1000. The
// $skip offset is only sent when positive. Activity and app type filters are
// validated against their known value sets before any request is made.
//
// # Rate Limits
//
// Exchange Online allows approximately 10,000 requests per 10 minutes per
// app and mailbox. This package implements conservative rate limiting to
// avoid hitting quotas.
package outlook
