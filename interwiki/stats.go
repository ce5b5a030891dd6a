package interwiki

import (
	"fmt"
	"io"
)

// Processing statistics.
type Stats struct {
	Subjects   int32 // Origin pages taken into work.
	Skipped    int32 // Origin pages skipped by the generator filters.
	Queries    int32 // Number of fetch batches.
	Fetched    int32 // Pages requested in fetch batches.
	Aborted    int32 // Subjects finished without writing: gave up, conflicts or forced stops.
	Problems   int32 // Problems reported.
	Edited     int32 // Pages saved.
	SaveErrors int32 // Pages that could not be saved.
}

// Print writes the statistics to w.
func (s Stats) Print(w io.Writer) {
	fmt.Fprintln(w, "Origin pages examined: ", s.Subjects)
	fmt.Fprintln(w, "Origin pages skipped: ", s.Skipped)
	fmt.Fprintln(w, "Fetch batches: ", s.Queries)
	fmt.Fprintln(w, "Pages fetched: ", s.Fetched)
	fmt.Fprintln(w, "Subjects aborted: ", s.Aborted)
	fmt.Fprintln(w, "Problems reported: ", s.Problems)
	fmt.Fprintln(w, "Pages edited: ", s.Edited)
	fmt.Fprintln(w, "Pages not saved: ", s.SaveErrors)
}
