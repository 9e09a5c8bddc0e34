// Package pagination walks a numeric id range of the people API and regroups
// the resulting stream into chunks.
//
// RangeFetcher splits [StartID, EndID) into batches of BatchSize ids. All ids of
// a batch are fetched in parallel; the batch is emitted in request order once
// every fetch has finished, then the next batch starts. A 404 becomes the
// people.NotFoundMarker, any other failure ends the sequence and is reported
// by Err.
//
// Rechunk is independent of that batching: it regroups any iter.Seq into
// slices of a fixed size and flushes the short remainder at the end.
//
// Example usage:
//
//	fetcher, err := pagination.NewRangeFetcher(httpClient, httpClient.PersonURL, pagination.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	for chunk := range pagination.Rechunk(fetcher.Records(ctx), 10) {
//		// hand chunk to a worker
//	}
//	if err := fetcher.Err(); err != nil {
//		return err
//	}
package pagination
