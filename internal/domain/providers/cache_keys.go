package providers

import "fmt"

// CardListCacheKey is the cache key of the cards a user owns
func CardListCacheKey(ownerID string) string {
	return fmt.Sprintf("cards:owner:%s", ownerID)
}

// SharedCardListCacheKey is the cache key of the cards shared with a user
func SharedCardListCacheKey(userID string) string {
	return fmt.Sprintf("cards:shared:%s", userID)
}

// SessionCacheKey is the cache key of a login session
func SessionCacheKey(token string) string {
	return "session:" + token
}

// LoginAttemptsCacheKey counts failed logins for an email
func LoginAttemptsCacheKey(email string) string {
	return "login:attempts:" + email
}
