package search

import (
	"context"
	"encoding/json"
	"launchpad/domain/launch"
	"launchpad/es"
	"launchpad/indices"
	"launchpad/session"
)

var (
	SearchLaunchesFunc = SearchLaunches
)

// SearchLaunches serves the marketplace browse query from the launch index,
// falling back to the database when no elasticsearch endpoint is configured.
func SearchLaunches(q launch.LaunchQuery, s *session.Session) ([]launch.Launch, error) {
	if !es.Enabled() {
		return launch.BrowseLaunchesFunc(q, s)
	}

	size := q.Size
	if size <= 0 || size > 100 {
		size = launch.DefaultPageSize
	}
	from := (q.Page - 1) * size
	if from < 0 {
		from = 0
	}

	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"approvalStatus.keyword": string(launch.ApprovalApproved)}},
		map[string]interface{}{"terms": map[string]interface{}{"status.keyword": []string{
			string(launch.StatusOpen), string(launch.StatusInProgress)}}},
	}
	if q.Tag != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"techStack.keyword": q.Tag}})
	}
	if q.Service != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"services.keyword": q.Service}})
	}
	if q.DealType != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"dealTypes.keyword": q.DealType}})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if q.Text != "" {
		boolQuery["must"] = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^3", "shortDescription^2", "description"},
			},
		}
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{map[string]interface{}{"submitTime": map[string]interface{}{"order": "desc"}}},
		"from":  from,
		"size":  size,
	}

	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sources, err := es.SearchFunc(ctx, indices.LaunchIndexName, body)
	if err != nil {
		return nil, err
	}

	launches := make([]launch.Launch, 0, len(sources))
	for _, source := range sources {
		doc := indices.LaunchDocument{}
		if err := json.Unmarshal(source, &doc); err != nil {
			return nil, err
		}
		launches = append(launches, doc.Launch)
	}
	return launches, nil
}
