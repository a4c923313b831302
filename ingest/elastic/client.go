// Package elastic adapts an Elasticsearch 7 cluster to the pipeline's
// IndexClient interface. Collection names map to indices as
// "<prefix>_<collection>".
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	elastic "github.com/olivere/elastic/v7"

	"github.com/chainindex/indexer-infrastructure/ingest"
)

type ClientConfig struct {
	URLs        []string `json:"urls"`
	IndexPrefix string   `json:"indexPrefix"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	APIKey      string   `json:"apiKey"`
	Sniff       bool     `json:"sniff"`
	Healthcheck bool     `json:"healthcheck"`
}

type Client struct {
	config *ClientConfig
	es     *elastic.Client
	logger hclog.Logger
}

var _ ingest.IndexClient = (*Client)(nil)

func NewClient(config *ClientConfig, logger hclog.Logger) (*Client, error) {
	options := []elastic.ClientOptionFunc{
		elastic.SetURL(config.URLs...),
		elastic.SetSniff(config.Sniff),
		elastic.SetHealthcheck(config.Healthcheck),
	}

	// an api key takes precedence over basic auth
	if config.APIKey != "" {
		headers := http.Header{}
		headers.Set("Authorization", "ApiKey "+config.APIKey)

		options = append(options, elastic.SetHeaders(headers))
	} else if config.Username != "" {
		options = append(options, elastic.SetBasicAuth(config.Username, config.Password))
	}

	es, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to search backend: %w", err)
	}

	return &Client{
		config: config,
		es:     es,
		logger: logger,
	}, nil
}

func (c *Client) indexName(collection string) string {
	return c.config.IndexPrefix + "_" + collection
}

func (c *Client) Index(ctx context.Context, collection, id string, body interface{}) error {
	service := c.es.Index().Index(c.indexName(collection)).BodyJson(body)
	if id != "" {
		service = service.Id(id)
	}

	_, err := service.Do(ctx)

	return convertError(err)
}

// Update is a doc-as-upsert: fields merge into the existing document or
// create it when missing. Repeating the same update is a no-op.
func (c *Client) Update(ctx context.Context, collection, id string, body interface{}) error {
	_, err := c.es.Update().
		Index(c.indexName(collection)).
		Id(id).
		Doc(body).
		DocAsUpsert(true).
		Do(ctx)

	return convertError(err)
}

func (c *Client) Search(ctx context.Context, collection, query string) (*ingest.SearchResult, error) {
	res, err := c.es.Search().
		Index(c.indexName(collection)).
		Query(elastic.NewRawStringQuery(query)).
		Do(ctx)
	if err != nil {
		return nil, convertError(err)
	}

	hits := make([]json.RawMessage, len(res.Hits.Hits))
	for i, hit := range res.Hits.Hits {
		hits[i] = json.RawMessage(hit.Source)
	}

	return &ingest.SearchResult{
		Total: res.TotalHits(),
		Hits:  hits,
	}, nil
}

func (c *Client) Count(ctx context.Context, collection, query string) (int64, error) {
	service := c.es.Count(c.indexName(collection))
	if query != "" {
		service = service.Query(elastic.NewRawStringQuery(query))
	}

	count, err := service.Do(ctx)

	return count, convertError(err)
}

func (c *Client) DeleteByQuery(ctx context.Context, collection, query string) error {
	_, err := c.es.DeleteByQuery(c.indexName(collection)).
		Query(elastic.NewRawStringQuery(query)).
		Do(ctx)

	return convertError(err)
}

// DeleteIndex removes every index under the configured prefix
func (c *Client) DeleteIndex(ctx context.Context) error {
	_, err := c.es.DeleteIndex(c.config.IndexPrefix + "_*").Do(ctx)

	return convertError(err)
}

// InitIndex creates the index for each collection that does not exist yet,
// applying its mapping. Existing indices are left untouched.
func (c *Client) InitIndex(ctx context.Context, mappings map[string]string) error {
	for collection, mapping := range mappings {
		name := c.indexName(collection)

		exists, err := c.es.IndexExists(name).Do(ctx)
		if err != nil {
			return convertError(err)
		}

		if exists {
			continue
		}

		c.logger.Debug("Creating index", "index", name)

		if _, err := c.es.CreateIndex(name).BodyString(mapping).Do(ctx); err != nil {
			return convertError(err)
		}
	}

	return nil
}

// BulkIndex submits the documents in one bulk request. Item failures inside
// an otherwise successful response are collected and reported as fatal.
func (c *Client) BulkIndex(ctx context.Context, docs []ingest.Document) error {
	if len(docs) == 0 {
		return nil
	}

	bulk := c.es.Bulk()

	for _, doc := range docs {
		req := elastic.NewBulkIndexRequest().Index(c.indexName(doc.Collection)).Doc(doc.Body)
		if doc.ID != "" {
			req = req.Id(doc.ID)
		}

		bulk = bulk.Add(req)
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return convertError(err)
	}

	if failed := res.Failed(); len(failed) > 0 {
		reasons := make([]string, 0, len(failed))

		for _, item := range failed {
			reason := "unknown"
			if item.Error != nil {
				reason = item.Error.Reason
			}

			reasons = append(reasons, fmt.Sprintf("%s/%s: %s", item.Index, item.Id, reason))
		}

		return errors.Join(ingest.ErrIngestFatal,
			fmt.Errorf("bulk submit had %d failed items: %s", len(failed), strings.Join(reasons, "; ")))
	}

	return nil
}

func convertError(err error) error {
	if err == nil {
		return nil
	}

	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		message := ""
		if esErr.Details != nil {
			message = esErr.Details.Reason
		}

		return &ingest.BackendError{StatusCode: esErr.Status, Message: message}
	}

	return err
}
