package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
)

// CollegeDoc is the shape indexed under the colleges index: one document per
// college/course row, mirroring the joined listing the API serves.
type CollegeDoc struct {
	CollegeID   uint    `json:"collegeId"`
	CollegeName string  `json:"collegeName"`
	Location    string  `json:"location"`
	Course      string  `json:"course"`
	Fee         float64 `json:"fee"`
}

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []CollegeDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"collegeName^2", "location", "course"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 }                `json:"total"`
			Hits  []struct {
				Source CollegeDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]CollegeDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

// Index writes one college document. Used by the seed command; the API itself
// never mutates colleges.
func Index(ctx context.Context, es *elasticsearch.Client, index string, doc CollegeDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(fmt.Sprintf("%d-%s", doc.CollegeID, doc.Course)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index: %s", res.Status())
	}
	return nil
}
