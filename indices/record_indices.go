package indices

import (
	"fmt"

	"appbase/client/es"
	"appbase/domain/records"
	"appbase/event"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	RecordIndexName = "records"

	RecordIndexEventHandlerName = "recordIndexer"
	indexRobot                  = &session.Context{
		Identity:  session.Identity{ID: 10, Name: "index-robot"},
		Superuser: true,
	}
)

type RecordDocument struct {
	records.Record
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexRecords(rs []records.Record) error {
	docs := make([]RecordDocument, 0, len(rs))
	for _, record := range rs {
		docs = append(docs, RecordDocument{Record: record})
	}

	if err := saveRecordDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveRecordDocuments(docs []RecordDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(RecordIndexName, doc.ID, doc); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index record %d #%d %s\n", doc.ID, doc.RecordNumber, err)
		} else {
			logrus.Infof("index record %d #%d successfully\n", doc.ID, doc.RecordNumber)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func IndexRecordEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeRecord {
		return nil
	}

	if e.EventCategory == event.EventCategoryDeleted {
		err := es.DeleteDocumentByIdFunc(RecordIndexName, e.Event.SourceId)
		if err != nil {
			return &event.EventHandleResult{
				Message:           fmt.Sprintf("delete record index %d, %v", e.Event.SourceId, err),
				HandlerIdentifier: RecordIndexEventHandlerName,
			}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: RecordIndexEventHandlerName}
	}

	record, err := records.DetailRecordFunc(e.Event.SourceId, indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail record when index record %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: RecordIndexEventHandlerName,
		}
	}
	if err := IndexRecords([]records.Record{*record}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index record %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: RecordIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: RecordIndexEventHandlerName}
}
