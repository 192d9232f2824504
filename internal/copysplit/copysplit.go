// Package copysplit splits a composite copy record into one channel entry
// per (indirection-group, source-memory, destination-memory) pair.
package copysplit

import (
	"fmt"

	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
)

// InstInfoRow is one row of a raw copy record's flat inst-info list. A
// row with Indirect set is an indirection marker: it describes which side
// is indirect by which of SrcSet/DstSet is populated, and is the first
// row of the run it opens.
type InstInfoRow struct {
	Indirect bool
	Src      ids.MemID
	Dst      ids.MemID
	SrcSet   bool
	DstSet   bool
}

// CopyDraft is the side-table entry accumulated for a copy record whose
// per-instance rows have not all arrived yet.
type CopyDraft struct {
	Rows    []InstInfoRow
	Creator ident.ProfUID
	OrigUID ident.ProfUID
}

// Result is one emitted sub-copy: the channel it belongs on and the rows
// (with the run's indirection marker re-prepended, if any) that produced it.
type Result struct {
	ChanID ids.ChanID
	Rows   []InstInfoRow
}

// Split groups a copy record's rows by indirection run, then by
// consecutive memory-pair within each run. The (true, true) gather-scatter
// case is unsupported and panics.
func Split(draft *CopyDraft) []Result {
	runs := groupRuns(draft.Rows)

	var results []Result
	for _, run := range runs {
		var marker *InstInfoRow
		rows := run
		if len(run) > 0 && run[0].Indirect {
			m := run[0]
			marker = &m
			rows = run[1:]
		}

		kind, fixedMem := classify(marker)

		for _, group := range consecutiveGroups(kind, rows) {
			key, rows := group.key, group.rows
			var chanID ids.ChanID
			switch kind {
			case ids.ChanKindCopy:
				chanID = ids.ChanID{Kind: ids.ChanKindCopy, Src: key.src, Dst: key.dst}
			case ids.ChanKindGather:
				chanID = ids.ChanID{Kind: ids.ChanKindGather, Dst: key.dst}
			case ids.ChanKindScatter:
				chanID = ids.ChanID{Kind: ids.ChanKindScatter, Src: key.src}
			}
			_ = fixedMem

			outRows := rows
			if marker != nil {
				outRows = append([]InstInfoRow{*marker}, rows...)
			}
			results = append(results, Result{ChanID: chanID, Rows: outRows})
		}
	}
	return results
}

// LastSubCopyCreator returns the UID the original copy's event-DAG node
// should be repointed to: a documented approximation that always selects
// the last emitted sub-copy, which the caller must itself track as it
// materializes entries from results.
func LastSubCopyCreator(createdInOrder []ident.ProfUID) ident.ProfUID {
	if len(createdInOrder) == 0 {
		panic("copysplit: no sub-copies were emitted")
	}
	return createdInOrder[len(createdInOrder)-1]
}

type memPair struct {
	src ids.MemID
	dst ids.MemID
}

type memPairGroup struct {
	key  memPair
	rows []InstInfoRow
}

// consecutiveGroups splits rows into runs of consecutive rows sharing the
// same memory-pair key; a pair recurring later after a different pair has
// intervened starts a new group rather than rejoining the earlier one.
func consecutiveGroups(kind ids.ChanKind, rows []InstInfoRow) []memPairGroup {
	var groups []memPairGroup
	for _, r := range rows {
		key := groupKey(kind, r)
		if n := len(groups); n > 0 && groups[n-1].key == key {
			groups[n-1].rows = append(groups[n-1].rows, r)
			continue
		}
		groups = append(groups, memPairGroup{key: key, rows: []InstInfoRow{r}})
	}
	return groups
}

func groupKey(kind ids.ChanKind, r InstInfoRow) memPair {
	switch kind {
	case ids.ChanKindGather:
		return memPair{dst: r.Dst}
	case ids.ChanKindScatter:
		return memPair{src: r.Src}
	default:
		return memPair{src: r.Src, dst: r.Dst}
	}
}

// classify determines the copy kind from an indirection marker's
// populated fields: (indirect_src, indirect_dst) in
// {(F,F):Copy, (T,F):Gather, (F,T):Scatter, (T,T):unsupported}.
func classify(marker *InstInfoRow) (ids.ChanKind, memPair) {
	if marker == nil {
		return ids.ChanKindCopy, memPair{}
	}
	indirectSrc, indirectDst := marker.SrcSet, marker.DstSet
	switch {
	case !indirectSrc && !indirectDst:
		return ids.ChanKindCopy, memPair{}
	case indirectSrc && !indirectDst:
		return ids.ChanKindGather, memPair{}
	case !indirectSrc && indirectDst:
		return ids.ChanKindScatter, memPair{}
	default:
		panic(fmt.Sprintf("copysplit: gather-scatter (indirect src and dst) is unsupported"))
	}
}

// groupRuns partitions rows into consecutive runs, each delimited (opened)
// by an indirection marker row.
func groupRuns(rows []InstInfoRow) [][]InstInfoRow {
	var runs [][]InstInfoRow
	var cur []InstInfoRow
	for _, r := range rows {
		if r.Indirect && len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
