// Package recordsrc adapts an external, already-decoded newline-delimited
// JSON record stream (one JSON object per line, tagged with a "kind"
// discriminator) into record.Record values for state.ProcessRecords. It
// is the seam where a real binary-log decoder would plug in; parsing the
// binary wire format itself is out of scope.
package recordsrc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/record"
)

// envelope holds a line's top-level keys, so the "kind" discriminator is
// looked up by its exact name and kept apart from a record's own Kind
// field.
type envelope map[string]json.RawMessage

// Stream decodes a newline-delimited JSON record stream.
type Stream struct {
	scanner *bufio.Scanner
	log     *alog.Logger
}

// NewStream wraps r. log may be nil to discard warnings about unknown or
// malformed lines.
func NewStream(r io.Reader, log *alog.Logger) *Stream {
	if log == nil {
		log = alog.New(false)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Stream{scanner: scanner, log: log}
}

// Decode reads every line, converting each to a record.Record. Lines that
// fail to parse or name an unknown kind are logged and skipped rather
// than aborting the stream: a malformed or unrecognized line degrades
// the parse, it does not cross-cut the ingest boundary as a hard error.
func (s *Stream) Decode() ([]record.Record, error) {
	var records []record.Record
	line := 0
	for s.scanner.Scan() {
		line++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn("recordsrc: line %d: malformed JSON, skipping: %v", line, err)
			continue
		}
		var kind string
		_ = json.Unmarshal(env["kind"], &kind) // absent or non-string: kind stays "" and is unknown
		delete(env, "kind")
		body, err := json.Marshal(env)
		if err != nil {
			s.log.Warn("recordsrc: line %d: malformed JSON, skipping: %v", line, err)
			continue
		}
		rec, ok := decode(kind, body)
		if !ok {
			s.log.Debug("recordsrc: line %d: unknown kind %q, skipping", line, kind)
			continue
		}
		records = append(records, rec)
	}
	if err := s.scanner.Err(); err != nil {
		return records, fmt.Errorf("recordsrc: scan failed: %w", err)
	}
	return records, nil
}

// decode unmarshals raw into the concrete Record type named by kind.
func decode(kind string, raw []byte) (record.Record, bool) {
	factory, ok := factories[kind]
	if !ok {
		return nil, false
	}
	rec, err := factory(raw)
	if err != nil {
		return nil, false
	}
	return rec, true
}

type factoryFunc func(raw []byte) (record.Record, error)

func unmarshalInto[T record.Record](raw []byte) (record.Record, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var factories = map[string]factoryFunc{
	"mapper_call_desc":    unmarshalInto[record.MapperCallDesc],
	"runtime_call_desc":   unmarshalInto[record.RuntimeCallDesc],
	"meta_desc":           unmarshalInto[record.MetaDesc],
	"op_desc":             unmarshalInto[record.OpDesc],
	"runtime_config":      unmarshalInto[record.RuntimeConfig],
	"machine_desc":        unmarshalInto[record.MachineDesc],
	"zero_time":           unmarshalInto[record.ZeroTime],
	"provenance":          unmarshalInto[record.Provenance],
	"calibration_err":     unmarshalInto[record.CalibrationErr],
	"proc_desc":           unmarshalInto[record.ProcDesc],
	"mem_desc":            unmarshalInto[record.MemDesc],
	"task_kind":           unmarshalInto[record.TaskKind],
	"task_variant":        unmarshalInto[record.TaskVariant],
	"backtrace_desc":      unmarshalInto[record.BacktraceDesc],
	"physical_inst_region_desc": unmarshalInto[record.PhysicalInstRegionDesc],

	"task_wait_info":  unmarshalInto[record.TaskWaitInfo],
	"meta_wait_info":  unmarshalInto[record.MetaWaitInfo],
	"event_wait_info": unmarshalInto[record.EventWaitInfo],

	"task_info":          unmarshalInto[record.TaskInfo],
	"implicit_task_info": unmarshalInto[record.ImplicitTaskInfo],
	"gpu_task_info":      unmarshalInto[record.GPUTaskInfo],
	"meta_info":          unmarshalInto[record.MetaInfo],
	"message_info":       unmarshalInto[record.MessageInfo],
	"mapper_call_info":   unmarshalInto[record.MapperCallInfo],
	"runtime_call_info":  unmarshalInto[record.RuntimeCallInfo],
	"application_call_info": unmarshalInto[record.ApplicationCallInfo],
	"prof_task_info":     unmarshalInto[record.ProfTaskInfo],

	"copy_info":      unmarshalInto[record.CopyInfo],
	"copy_inst_info": unmarshalInto[record.CopyInstInfo],
	"fill_info":      unmarshalInto[record.FillInfo],
	"fill_inst_info": unmarshalInto[record.FillInstInfo],
	"partition_info": unmarshalInto[record.PartitionInfo],

	"inst_timeline_info": unmarshalInto[record.InstTimelineInfo],

	"event_merger_info":        unmarshalInto[record.EventMergerInfo],
	"event_trigger_info":       unmarshalInto[record.EventTriggerInfo],
	"event_poison_info":        unmarshalInto[record.EventPoisonInfo],
	"external_event_info":      unmarshalInto[record.ExternalEventInfo],
	"barrier_arrival_info":     unmarshalInto[record.BarrierArrivalInfo],
	"reservation_acquire_info": unmarshalInto[record.ReservationAcquireInfo],
	"completion_queue_info":    unmarshalInto[record.CompletionQueueInfo],
	"instance_ready_info":      unmarshalInto[record.InstanceReadyInfo],
	"instance_redistrict_info": unmarshalInto[record.InstanceRedistrictInfo],
}
