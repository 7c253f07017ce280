package search_test

import (
	"encoding/json"
	"errors"
	"testing"

	"appbase/client/es"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/domain/records"
	"appbase/indices"
	"appbase/indices/search"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func buildHit(t *testing.T, record records.Record) es.ESSearchHit {
	doc := indices.RecordDocument{Record: record}
	raw, err := json.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	return es.ESSearchHit{Id: record.ID.String(), Source: es.Source(raw)}
}

func TestSearchRecords(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should build the filter query from search parameters", func(t *testing.T) {
		var gotIndex string
		var gotQuery interface{}
		es.SearchFunc = func(index string, query interface{}) (*es.ESSearchResult, error) {
			gotIndex = index
			gotQuery = query
			return &es.ESSearchResult{}, nil
		}

		result, err := search.SearchRecords(search.RecordSearchQuery{AppID: 100, Keyword: "beijing", Status: "review"},
			&session.Context{Token: "t", Identity: session.Identity{ID: 10}})
		Expect(err).To(BeNil())
		Expect(result).To(Equal([]records.Record{}))
		Expect(gotIndex).To(Equal(indices.RecordIndexName))
		Expect(gotQuery).To(Equal(es.H{
			"size": 10000,
			"query": es.H{"bool": es.H{"filter": []es.H{
				{"term": es.H{"appId": types.ID(100)}},
				{"query_string": es.H{"query": "beijing"}},
				{"term": es.H{"status.keyword": "review"}},
			}}},
			"sort": []es.H{{"recordNumber": es.H{"order": "asc"}}},
		}))
	})

	t.Run("should propagate search errors", func(t *testing.T) {
		es.SearchFunc = func(index string, query interface{}) (*es.ESSearchResult, error) {
			return nil, errors.New("error on search")
		}
		_, err := search.SearchRecords(search.RecordSearchQuery{}, &session.Context{Token: "t"})
		Expect(err).To(Equal(errors.New("error on search")))
	})

	t.Run("should drop hits of unreadable apps and denied records", func(t *testing.T) {
		r1 := records.Record{ID: 1, AppID: 100, RecordNumber: 1, CreatedBy: 10,
			Data: records.RecordData{"category": "public"}}
		r2 := records.Record{ID: 2, AppID: 100, RecordNumber: 2, CreatedBy: 20,
			Data: records.RecordData{"category": "secret"}}
		r3 := records.Record{ID: 3, AppID: 200, RecordNumber: 1, CreatedBy: 20}

		es.SearchFunc = func(index string, query interface{}) (*es.ESSearchResult, error) {
			return &es.ESSearchResult{Hits: es.ESSearchHits{Hits: []es.ESSearchHit{
				buildHit(t, r1), buildHit(t, r2), buildHit(t, r3),
			}}}, nil
		}

		detailed := []types.ID{}
		apps.DetailAppFunc = func(id types.ID, sec *session.Context) (*apps.App, error) {
			detailed = append(detailed, id)
			if id != 100 {
				return nil, errors.New("forbidden")
			}
			// secret records are visible to their creator only
			return &apps.App{ID: id, Permissions: acl.Permissions{RecordRules: []acl.RecordRule{
				{Condition: &acl.Condition{Field: "category", Operator: "=", Value: "secret"},
					Permissions: map[string][]acl.Entity{
						acl.OperationView: {{EntityType: acl.EntityTypeCreator}}}},
			}}}, nil
		}

		sec := &session.Context{Token: "t", Identity: session.Identity{ID: 10}}
		result, err := search.SearchRecords(search.RecordSearchQuery{}, sec)
		Expect(err).To(BeNil())
		Expect(result).To(Equal([]records.Record{r1}))
		// app permissions are resolved once per app
		Expect(detailed).To(Equal([]types.ID{100, 200}))
	})
}
