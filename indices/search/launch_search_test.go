package search

import (
	"context"
	"encoding/json"
	"launchpad/domain/launch"
	"launchpad/es"
	"launchpad/session"
	"os"
	"testing"

	. "github.com/onsi/gomega"
)

func TestSearchLaunchesFallback(t *testing.T) {
	RegisterTestingT(t)

	t.Run("without elasticsearch the database serves the browse", func(t *testing.T) {
		original := os.Getenv("ELASTICSEARCH_URL")
		os.Unsetenv("ELASTICSEARCH_URL")
		defer os.Setenv("ELASTICSEARCH_URL", original)

		launch.BrowseLaunchesFunc = func(q launch.LaunchQuery, s *session.Session) ([]launch.Launch, error) {
			Expect(q.Tag).To(Equal("go"))
			return []launch.Launch{{ID: 1, Title: "TaskPilot"}}, nil
		}

		records, err := SearchLaunches(launch.LaunchQuery{Tag: "go"}, &session.Session{})
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].Title).To(Equal("TaskPilot"))
	})
}

func TestSearchLaunchesQuery(t *testing.T) {
	RegisterTestingT(t)

	os.Setenv("ELASTICSEARCH_URL", "http://localhost:9200")
	defer os.Unsetenv("ELASTICSEARCH_URL")

	t.Run("filters and text are folded into one bool query", func(t *testing.T) {
		var captured interface{}
		es.SearchFunc = func(ctx context.Context, index string, query interface{}) ([]json.RawMessage, error) {
			Expect(index).To(Equal("launches"))
			captured = query
			doc, err := json.Marshal(launch.Launch{ID: 1, Title: "TaskPilot"})
			Expect(err).To(BeNil())
			return []json.RawMessage{doc}, nil
		}

		records, err := SearchLaunches(launch.LaunchQuery{
			Tag: "go", Service: "development", DealType: "hourly", Text: "pilot", Page: 2, Size: 10,
		}, &session.Session{})
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).ToNot(BeZero())

		raw, err := json.Marshal(captured)
		Expect(err).To(BeNil())
		body := string(raw)
		Expect(body).To(ContainSubstring(`"approvalStatus.keyword":"approved"`))
		Expect(body).To(ContainSubstring(`"techStack.keyword":"go"`))
		Expect(body).To(ContainSubstring(`"services.keyword":"development"`))
		Expect(body).To(ContainSubstring(`"dealTypes.keyword":"hourly"`))
		Expect(body).To(ContainSubstring(`"multi_match"`))
		Expect(body).To(ContainSubstring(`"from":10`))
		Expect(body).To(ContainSubstring(`"size":10`))
	})

	t.Run("page and size are clamped to sane defaults", func(t *testing.T) {
		var captured interface{}
		es.SearchFunc = func(ctx context.Context, index string, query interface{}) ([]json.RawMessage, error) {
			captured = query
			return nil, nil
		}

		records, err := SearchLaunches(launch.LaunchQuery{Page: -1, Size: 1000}, &session.Session{})
		Expect(err).To(BeNil())
		Expect(records).To(BeEmpty())

		raw, err := json.Marshal(captured)
		Expect(err).To(BeNil())
		Expect(string(raw)).To(ContainSubstring(`"from":0`))
		Expect(string(raw)).To(ContainSubstring(`"size":20`))
	})
}
