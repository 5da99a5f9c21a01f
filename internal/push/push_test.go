package push

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amsterdam/aapp-api-services-sub001/internal/imageset"
)

type fakeBatchSender struct {
	batches [][]*messaging.Message
	// failTokens marks tokens whose sends come back unsuccessful.
	failTokens map[string]bool
	err        error
}

func (s *fakeBatchSender) SendEach(_ context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error) {
	s.batches = append(s.batches, messages)
	if s.err != nil {
		return nil, s.err
	}
	resp := &messaging.BatchResponse{}
	for _, m := range messages {
		if s.failTokens[m.Token] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: errors.New("registration-token-not-registered")})
		} else {
			resp.SuccessCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true})
		}
	}
	return resp, nil
}

type fakeImages struct {
	sets map[int]*imageset.ImageSet
}

func (f *fakeImages) Exists(_ context.Context, id int) (bool, error) {
	_, ok := f.sets[id]
	return ok, nil
}

func (f *fakeImages) Get(_ context.Context, id int) (*imageset.ImageSet, error) {
	set, ok := f.sets[id]
	if !ok {
		return nil, imageset.ErrImageNotFound
	}
	return set, nil
}

func messageBatch(n int) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{Token: fmt.Sprintf("token-%d", i), Title: "t", Body: "b"}
	}
	return msgs
}

func TestChunkMessages(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{"empty", 0, 500, nil},
		{"below limit", 3, 500, []int{3}},
		{"exactly limit", 500, 500, []int{500}},
		{"one over", 501, 500, []int{500, 1}},
		{"several chunks", 1203, 500, []int{500, 500, 203}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkMessages(messageBatch(tt.count), tt.size)
			var sizes []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestSendCountsPerTokenFailures(t *testing.T) {
	sender := &fakeBatchSender{failTokens: map[string]bool{"token-1": true}}
	svc := newServiceWithSender(sender, nil)

	failed, err := svc.Send(context.Background(), messageBatch(3))
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	require.Len(t, sender.batches, 1)
}

func TestSendSplitsIntoBatchesOfFiveHundred(t *testing.T) {
	sender := &fakeBatchSender{}
	svc := newServiceWithSender(sender, nil)

	failed, err := svc.Send(context.Background(), messageBatch(750))
	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	require.Len(t, sender.batches, 2)
	assert.Len(t, sender.batches[0], 500)
	assert.Len(t, sender.batches[1], 250)
}

func TestSendStopsOnBatchError(t *testing.T) {
	sender := &fakeBatchSender{err: errors.New("unavailable")}
	svc := newServiceWithSender(sender, nil)

	_, err := svc.Send(context.Background(), messageBatch(1))
	require.Error(t, err)
}

func TestBuildMessageCarriesNotificationID(t *testing.T) {
	svc := newServiceWithSender(&fakeBatchSender{}, nil)
	msg := svc.buildMessage(context.Background(), &Message{
		Token:          "token-0",
		Title:          "Waste pickup",
		Body:           "Tomorrow",
		Data:           map[string]string{"module_slug": "waste"},
		NotificationID: "3f0c8d1e",
	})

	assert.Equal(t, "token-0", msg.Token)
	assert.Equal(t, "Waste pickup", msg.Notification.Title)
	assert.Equal(t, "waste", msg.Data["module_slug"])
	assert.Equal(t, "3f0c8d1e", msg.Data["notificationId"])
	assert.Nil(t, msg.Android, "no image requested")
}

func TestAttachImageUsesMediumVariant(t *testing.T) {
	images := &fakeImages{sets: map[int]*imageset.ImageSet{
		7: {ID: 7, Variants: []imageset.ImageVariant{
			{Image: "https://img.test/small.jpg"},
			{Image: "https://img.test/medium.jpg"},
			{Image: "https://img.test/large.jpg"},
		}},
	}}
	svc := newServiceWithSender(&fakeBatchSender{}, images)
	imageID := 7
	msg := svc.buildMessage(context.Background(), &Message{Token: "token-0", ImageSetID: &imageID})

	require.NotNil(t, msg.Android)
	assert.Equal(t, "https://img.test/medium.jpg", msg.Android.Notification.ImageURL)
	require.NotNil(t, msg.APNS)
	assert.True(t, msg.APNS.Payload.Aps.MutableContent)
	assert.Equal(t, "https://img.test/medium.jpg", msg.APNS.FCMOptions.ImageURL)
}

func TestAttachImageDegradesWhenLookupFails(t *testing.T) {
	svc := newServiceWithSender(&fakeBatchSender{}, &fakeImages{})
	imageID := 404
	msg := svc.buildMessage(context.Background(), &Message{Token: "token-0", ImageSetID: &imageID})

	assert.Nil(t, msg.Android, "message goes out without an image")
	assert.Nil(t, msg.APNS)
}
