package common

// TokenQueryParam is the query parameter carrying the session token on
// authenticated routes.
const TokenQueryParam = "token"

// OwnerSelf marks a dashboard as owned by the requesting user in
// check-password-needed responses.
const OwnerSelf = "self"
