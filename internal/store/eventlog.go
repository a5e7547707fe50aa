package store

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/core/exported"
)

// EventLog is an append-only log of the events emitted by the host, keyed
// by block height and position within the block.
type EventLog struct {
	db dbm.DB
}

// NewEventLog returns an event log over db. It may share db with a Store.
func NewEventLog(db dbm.DB) *EventLog {
	return &EventLog{db: db}
}

// IndexedEvent is an event with its position in the log.
type IndexedEvent struct {
	Height int64
	Index  int64
	Event  exported.Event
}

type eventRecord struct {
	Type       string             `protobuf:"bytes,1,opt,name=type,proto3"`
	Attributes []*attributeRecord `protobuf:"bytes,2,rep,name=attributes,proto3"`
}

func (r *eventRecord) Reset()         { *r = eventRecord{} }
func (r *eventRecord) String() string { return proto.CompactTextString(r) }
func (*eventRecord) ProtoMessage()    {}

type attributeRecord struct {
	Key   string `protobuf:"bytes,1,opt,name=key,proto3"`
	Value string `protobuf:"bytes,2,opt,name=value,proto3"`
}

func (r *attributeRecord) Reset()         { *r = attributeRecord{} }
func (r *attributeRecord) String() string { return proto.CompactTextString(r) }
func (*attributeRecord) ProtoMessage()    {}

// Append writes events at height after the events already logged there.
func (l *EventLog) Append(height int64, events []exported.Event) error {
	next, err := l.count(height)
	if err != nil {
		return err
	}
	batch := l.db.NewBatch()
	defer batch.Close()
	for i, event := range events {
		record := &eventRecord{Type: event.Type}
		for _, attr := range event.Attributes {
			record.Attributes = append(record.Attributes, &attributeRecord{Key: attr.Key, Value: attr.Value})
		}
		bz, err := proto.Marshal(record)
		if err != nil {
			return fmt.Errorf("unable to marshal: %w", err)
		}
		if err := batch.Set(eventKey(height, next+int64(i)), bz); err != nil {
			return err
		}
	}
	return batch.Write()
}

// Events returns the events logged at height.
func (l *EventLog) Events(height int64) ([]exported.Event, error) {
	var events []exported.Event
	err := l.scan(eventKey(height, 0), eventKey(height+1, 0), func(ie IndexedEvent) bool {
		events = append(events, ie.Event)
		return true
	})
	return events, err
}

// Search returns the events of type eventType logged at heights in
// [from, to].
func (l *EventLog) Search(eventType string, from, to int64) ([]IndexedEvent, error) {
	var found []IndexedEvent
	err := l.scan(eventKey(from, 0), eventKey(to+1, 0), func(ie IndexedEvent) bool {
		if ie.Event.Type == eventType {
			found = append(found, ie)
		}
		return true
	})
	return found, err
}

func (l *EventLog) count(height int64) (int64, error) {
	it, err := l.db.ReverseIterator(eventKey(height, 0), eventKey(height+1, 0))
	if err != nil {
		return 0, err
	}
	defer it.Close()
	if !it.Valid() {
		return 0, it.Error()
	}
	_, index, err := decodeEventKey(it.Key())
	if err != nil {
		return 0, err
	}
	return index + 1, nil
}

func (l *EventLog) scan(start, end []byte, fn func(IndexedEvent) bool) error {
	it, err := l.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		height, index, err := decodeEventKey(it.Key())
		if err != nil {
			return err
		}
		record := new(eventRecord)
		if err := proto.Unmarshal(it.Value(), record); err != nil {
			return fmt.Errorf("error reading event at %d/%d: %w", height, index, err)
		}
		event := exported.Event{Type: record.Type}
		for _, attr := range record.Attributes {
			event.Attributes = append(event.Attributes, exported.NewAttribute(attr.Key, attr.Value))
		}
		if !fn(IndexedEvent{Height: height, Index: index, Event: event}) {
			break
		}
	}
	return it.Error()
}

func eventKey(height, index int64) []byte {
	key, err := orderedcode.Append(nil, prefixEvent, height, index)
	if err != nil {
		panic(err)
	}
	return key
}

func decodeEventKey(key []byte) (height, index int64, err error) {
	var prefix int64
	remaining, err := orderedcode.Parse(string(key), &prefix, &height, &index)
	if err != nil {
		return
	}
	if len(remaining) != 0 {
		return -1, -1, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixEvent {
		return -1, -1, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixEvent, prefix)
	}
	return
}
