package publisher

import (
	"net/http"

	"github.com/dghubble/oauth1"
)

// newOAuth1Client builds an http.Client whose transport signs every request
// with the bot account's OAuth 1.0a user-context credentials.
func newOAuth1Client(creds Credentials) *http.Client {
	config := oauth1.NewConfig(creds.APIKey, creds.APIKeySecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	client := config.Client(oauth1.NoContext, token)
	client.Timeout = publishTimeout
	return client
}
