// Package push delivers prepared notifications to Firebase Cloud
// Messaging and accounts for per-token failures.
package push

import (
	"context"
	"log"

	"firebase.google.com/go/v4/messaging"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
)

// batchLimit is the maximum number of messages Firebase accepts per
// SendEach call.
const batchLimit = 500

// Message is one per-device push, already resolved to a token.
type Message struct {
	Token          string
	Title          string
	Body           string
	Data           map[string]string
	NotificationID string
	ImageSetID     *int
}

// Sender pushes a batch of messages and reports how many tokens failed.
type Sender interface {
	Send(ctx context.Context, msgs []Message) (failed int, err error)
}

// batchSender is the part of *messaging.Client the service uses; tests
// substitute it.
type batchSender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type Service struct {
	client batchSender
	images imageset.Client
}

func NewService(client *messaging.Client, images imageset.Client) *Service {
	return &Service{client: client, images: images}
}

func newServiceWithSender(client batchSender, images imageset.Client) *Service {
	return &Service{client: client, images: images}
}

// Send forwards the messages to Firebase in chunks of at most batchLimit.
// A failed token is logged and counted, never fatal to its batch or to
// sibling batches.
func (s *Service) Send(ctx context.Context, msgs []Message) (int, error) {
	failed := 0
	for _, chunk := range chunkMessages(msgs, batchLimit) {
		fbMessages := make([]*messaging.Message, 0, len(chunk))
		for i := range chunk {
			fbMessages = append(fbMessages, s.buildMessage(ctx, &chunk[i]))
		}
		resp, err := s.client.SendEach(ctx, fbMessages)
		if err != nil {
			return failed, err
		}
		if resp.FailureCount > 0 {
			failed += s.logFailures(resp, chunk)
		}
	}
	return failed, nil
}

func (s *Service) buildMessage(ctx context.Context, m *Message) *messaging.Message {
	data := make(map[string]string, len(m.Data)+1)
	for k, v := range m.Data {
		data[k] = v
	}
	data["notificationId"] = m.NotificationID

	msg := &messaging.Message{
		Token: m.Token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: m.Title,
			Body:  m.Body,
		},
	}
	if m.ImageSetID != nil {
		s.attachImage(ctx, msg, *m.ImageSetID)
	}
	return msg
}

// attachImage adds the platform-specific image payloads. A failed image
// lookup degrades to an imageless message instead of failing the push.
//
// Firebase image requirements: max 1 MB, JPEG/PNG/BMP, landscape 2:1,
// which is what the image service's medium variant provides.
func (s *Service) attachImage(ctx context.Context, msg *messaging.Message, imageSetID int) {
	if s.images == nil {
		return
	}
	set, err := s.images.Get(ctx, imageSetID)
	if err != nil {
		log.Printf("push: image set %d lookup failed, sending without image: %v", imageSetID, err)
		return
	}
	imageURL := set.URLMedium()
	if imageURL == "" {
		return
	}
	msg.Android = &messaging.AndroidConfig{
		Notification: &messaging.AndroidNotification{ImageURL: imageURL},
	}
	msg.APNS = &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{MutableContent: true},
		},
		FCMOptions: &messaging.APNSFCMOptions{ImageURL: imageURL},
	}
}

func (s *Service) logFailures(resp *messaging.BatchResponse, chunk []Message) int {
	failed := 0
	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		failed++
		log.Printf("push: failed to send notification to device [token=%s]: %v", chunk[i].Token, r.Error)
	}
	return failed
}

func chunkMessages(msgs []Message, size int) [][]Message {
	if len(msgs) == 0 {
		return nil
	}
	chunks := make([][]Message, 0, (len(msgs)+size-1)/size)
	for size < len(msgs) {
		chunks = append(chunks, msgs[:size])
		msgs = msgs[size:]
	}
	return append(chunks, msgs)
}
