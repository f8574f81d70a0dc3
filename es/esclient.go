package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/fundwit/go-commons/types"
)

// ELASTICSEARCH_URL
var ActiveESClient *elasticsearch.Client

var (
	IndexFunc  = Index
	DeleteFunc = Delete
	SearchFunc = Search
)

func init() {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Transport: &TracingTransport{Transport: http.DefaultTransport},
	})
	if err != nil {
		panic(err)
	}
	ActiveESClient = client
}

// Enabled reports whether an elasticsearch endpoint is configured.
func Enabled() bool {
	return os.Getenv("ELASTICSEARCH_URL") != ""
}

func Index(ctx context.Context, index string, id types.ID, doc interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id.String(),
		Body:       bytes.NewReader(buf.Bytes()),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.New("index document " + id.String() + " into " + index + ": " + res.Status())
	}
	_, _ = ioutil.ReadAll(res.Body)
	return nil
}

func Delete(ctx context.Context, index string, id types.ID) error {
	req := esapi.DeleteRequest{Index: index, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, ActiveESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// deleting an unindexed document is not an error
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.New("delete document " + id.String() + " from " + index + ": " + res.Status())
	}
	_, _ = ioutil.ReadAll(res.Body)
	return nil
}

// Search returns the raw _source of every hit.
func Search(ctx context.Context, index string, query interface{}) ([]json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := ActiveESClient.Search(
		ActiveESClient.Search.WithContext(ctx),
		ActiveESClient.Search.WithIndex(index),
		ActiveESClient.Search.WithBody(&buf),
		ActiveESClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := ioutil.ReadAll(res.Body)
		return nil, errors.New("search " + index + ": " + res.Status() + " " + string(body))
	}

	result := struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	sources := make([]json.RawMessage, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return sources, nil
}
