package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"appbase/client/es"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/domain/records"
	"appbase/indices"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchRecordsFunc = SearchRecords
)

type RecordSearchQuery struct {
	AppID   types.ID `json:"appId" form:"appId"`
	Keyword string   `json:"q" form:"q"`
	Status  string   `json:"status" form:"status"`
}

// SearchRecords queries the record index, then re-checks view permission
// against the live app configuration before returning each hit.
func SearchRecords(q RecordSearchQuery, sec *session.Context) ([]records.Record, error) {
	filters := make([]es.H, 0, 3)
	if q.AppID > 0 {
		filters = append(filters, es.H{"term": es.H{"appId": q.AppID}})
	}
	if q.Keyword != "" {
		filters = append(filters, es.H{"query_string": es.H{"query": q.Keyword}})
	}
	if q.Status != "" {
		filters = append(filters, es.H{"term": es.H{"status.keyword": q.Status}})
	}

	root := es.H{"bool": es.H{"filter": filters}}
	sorts := []es.H{{"recordNumber": es.H{"order": "asc"}}}
	r, err := es.SearchFunc(indices.RecordIndexName, es.H{"size": 10000, "query": root, "sort": sorts})
	if err != nil {
		return nil, err
	}

	requester := acl.RequesterOf(sec)
	permissions := map[types.ID]*apps.App{}
	result := make([]records.Record, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := indices.RecordDocument{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&doc); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}

		app, found := permissions[doc.AppID]
		if !found {
			app, err = apps.DetailAppFunc(doc.AppID, sec)
			if err != nil {
				// unreadable apps hide their records instead of failing the search
				permissions[doc.AppID] = nil
				continue
			}
			permissions[doc.AppID] = app
		}
		if app == nil {
			continue
		}
		subject := acl.Subject{CreatedBy: doc.CreatedBy.String(), Data: doc.Data}
		if !acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationView, requester, subject) {
			continue
		}
		result = append(result, doc.Record)
	}
	return result, nil
}
