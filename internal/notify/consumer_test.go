package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/media"
)

type fakeStore struct {
	records []media.MediaRecord
	err     error
}

var _ datastore.Interface = (*fakeStore)(nil)

func (s *fakeStore) Open() error  { return nil }
func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) Upsert(record *media.MediaRecord) error { return nil }

func (s *fakeStore) Get(ownerID, id string) (media.MediaRecord, error) {
	return media.MediaRecord{}, errors.NotFoundError("not found")
}

func (s *fakeStore) GetAll() ([]media.MediaRecord, error) {
	return s.records, s.err
}

func (s *fakeStore) GetByURL(url string) (media.MediaRecord, error) {
	return media.MediaRecord{}, errors.NotFoundError("not found")
}

func (s *fakeStore) DeleteByURL(url string) (int, error) { return 0, nil }

type recordingNotifier struct {
	sent   []Event
	failFn func(Event) error
}

func (n *recordingNotifier) Send(_ context.Context, event Event) error {
	if n.failFn != nil {
		if err := n.failFn(event); err != nil {
			return err
		}
	}
	n.sent = append(n.sent, event)
	return nil
}

func TestConsumerNotifiesInterestedUsers(t *testing.T) {
	store := &fakeStore{records: []media.MediaRecord{
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
		record("carol", "20", media.Tag{Species: "owl", Count: 1}),
	}}
	notifier := &recordingNotifier{}
	consumer := NewConsumer(store, notifier, nil)

	updated := record("alice", "1", media.Tag{Species: "crow", Count: 2})
	err := consumer.ProcessEvent(events.NewRecordEvent(events.KindCreate, nil, updated))
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "bob", notifier.sent[0].Recipient)
	assert.Equal(t, []string{"crow"}, notifier.sent[0].MatchedSpecies)
}

func TestConsumerSkipsFailedRecipient(t *testing.T) {
	store := &fakeStore{records: []media.MediaRecord{
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
		record("carol", "20", media.Tag{Species: "crow", Count: 1}),
	}}
	notifier := &recordingNotifier{failFn: func(e Event) error {
		if e.Recipient == "bob" {
			return errors.NewStd("broker unavailable")
		}
		return nil
	}}
	consumer := NewConsumer(store, notifier, nil)

	updated := record("alice", "1", media.Tag{Species: "crow", Count: 1})
	err := consumer.ProcessEvent(events.NewRecordEvent(events.KindCreate, nil, updated))
	require.NoError(t, err)

	// Bob's failure does not block carol.
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "carol", notifier.sent[0].Recipient)
}

func TestConsumerPropagatesStoreError(t *testing.T) {
	store := &fakeStore{err: errors.NewStd("scan failed")}
	consumer := NewConsumer(store, &recordingNotifier{}, nil)

	updated := record("alice", "1", media.Tag{Species: "crow", Count: 1})
	err := consumer.ProcessEvent(events.NewRecordEvent(events.KindCreate, nil, updated))
	assert.Error(t, err)
}
