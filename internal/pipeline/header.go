package pipeline

import (
	"plano/internal/util"
)

const (
	defaultHeaderScanRows = 10
)

// HeaderMatch is the header row chosen by the locator.
type HeaderMatch struct {
	HeaderRowIndex int
	HeaderCells    []string
	MatchCount     int
}

// HeaderLocator scans the first ScanRows rows for the one naming the most
// canonical fields. A row qualifies only with at least MinMatches fields.
type HeaderLocator struct {
	ScanRows   int
	MinMatches int
}

func DefaultHeaderLocator() HeaderLocator {
	return HeaderLocator{ScanRows: defaultHeaderScanRows, MinMatches: len(MandatoryFields)}
}

func (l HeaderLocator) Locate(rows [][]Cell) (HeaderMatch, error) {
	scan := l.ScanRows
	if scan <= 0 {
		scan = defaultHeaderScanRows
	}
	if scan > len(rows) {
		scan = len(rows)
	}
	minMatches := l.MinMatches
	if minMatches <= 0 {
		minMatches = len(MandatoryFields)
	}

	best := HeaderMatch{HeaderRowIndex: -1}
	for i := 0; i < scan; i++ {
		keys := headerKeys(rows[i])
		count := countFields(keys)
		// strict ">" keeps the first row on ties
		if count > best.MatchCount && count >= minMatches {
			best = HeaderMatch{HeaderRowIndex: i, HeaderCells: keys, MatchCount: count}
		}
	}
	if best.HeaderRowIndex < 0 {
		return HeaderMatch{}, ErrNoHeaderFound
	}
	return best, nil
}

func headerKeys(row []Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = util.HeaderKey(c.String())
	}
	return out
}

func countFields(keys []string) int {
	found := map[Field]struct{}{}
	for _, k := range keys {
		if f, ok := FieldForHeader(k); ok {
			found[f] = struct{}{}
		}
	}
	return len(found)
}
