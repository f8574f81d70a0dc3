package event_test

import (
	"errors"
	"launchpad/event"
	"launchpad/session"
	"testing"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func TestCreateEvent(t *testing.T) {
	RegisterTestingT(t)

	original := event.EventPersistCreateFunc

	t.Run("create event with identity and timestamp", func(t *testing.T) {
		var persisted *event.EventRecord
		event.EventPersistCreateFunc = func(record *event.EventRecord, db *gorm.DB) error {
			persisted = record
			return nil
		}
		defer func() { event.EventPersistCreateFunc = original }()

		identity := session.Identity{ID: 10, Name: "ada"}
		record, err := event.CreateEvent(event.SourceTypeLaunch, 100, "TaskPilot",
			event.EventCategoryCreated, nil, &identity, nil)
		Expect(err).To(BeNil())
		Expect(record).To(Equal(persisted))
		Expect(record.SourceType).To(Equal(event.SourceTypeLaunch))
		Expect(record.SourceId.String()).To(Equal("100"))
		Expect(record.SourceDesc).To(Equal("TaskPilot"))
		Expect(record.CreatorId.String()).To(Equal("10"))
		Expect(record.CreatorName).To(Equal("ada"))
		Expect(record.Synced).To(BeFalse())
		Expect(record.Timestamp.Time().IsZero()).To(BeFalse())
	})

	t.Run("persist failures surface to the caller", func(t *testing.T) {
		event.EventPersistCreateFunc = func(record *event.EventRecord, db *gorm.DB) error {
			return errors.New("error on persist")
		}
		defer func() { event.EventPersistCreateFunc = original }()

		record, err := event.CreateEvent(event.SourceTypeProposal, 200, "offer",
			event.EventCategoryPropertyUpdated, nil, &session.Identity{ID: 10}, nil)
		Expect(record).To(BeNil())
		Expect(err).ToNot(BeNil())
	})
}

func TestInvokeHandlers(t *testing.T) {
	RegisterTestingT(t)

	t.Run("every registered handler observes the event", func(t *testing.T) {
		original := event.EventHandlers
		defer func() { event.EventHandlers = original }()

		seen := 0
		event.EventHandlers = []event.EventHandler{
			func(e *event.EventRecord) *event.EventHandleResult {
				seen++
				return &event.EventHandleResult{Success: true, HandlerIdentifier: "first"}
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				seen++
				return nil // unsupported events are skipped silently
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				seen++
				return &event.EventHandleResult{Success: false, Message: "boom", HandlerIdentifier: "third"}
			},
		}

		results := event.InvokeHandlersFunc(&event.EventRecord{})
		Expect(seen).To(Equal(3))
		Expect(len(results)).To(Equal(2))
		Expect(results[0].HandlerIdentifier).To(Equal("first"))
		Expect(results[1].Success).To(BeFalse())
	})
}
