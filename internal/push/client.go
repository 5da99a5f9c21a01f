package push

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// NewMessagingClient builds the Firebase messaging client once at process
// start. The handle is passed to the services that need it; nothing here
// relies on a process-global app registry.
func NewMessagingClient(ctx context.Context, credentialsJSON string) (*messaging.Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	return app.Messaging(ctx)
}
